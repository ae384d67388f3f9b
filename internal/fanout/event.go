// Package fanout delivers procurement change events to live subscribers.
//
// Delivery is fire-and-forget: a publish never blocks on a slow or broken
// subscriber, and a subscriber that fails a write is dropped. Within one
// connection events arrive in publish order, and a connection subscribed to
// several topics an event maps to receives that event once.
package fanout

import "strings"

// Action describes what happened to an entity.
type Action string

const (
	// ActionCreate announces a newly created entity.
	ActionCreate Action = "create"
	// ActionUpdate announces a mutated entity.
	ActionUpdate Action = "update"
	// ActionDelete announces a removed entity.
	ActionDelete Action = "delete"
)

// EntityType names the kind of entity an event is about.
type EntityType string

const (
	// EntitySolicitation events cover solicitation lifecycle changes.
	EntitySolicitation EntityType = "solicitation"
	// EntityProposal events cover proposal submissions and mutations.
	EntityProposal EntityType = "proposal"
	// EntityScore events cover evaluator score records.
	EntityScore EntityType = "score"
)

// Event is one change notification pushed to subscribers.
type Event struct {
	Action     Action     `json:"action"`
	EntityType EntityType `json:"entity_type"`
	Data       any        `json:"data"`
}

const (
	// TopicSubmissions receives every proposal and solicitation event.
	TopicSubmissions = "submissions"
	// TopicEvaluations receives every score event.
	TopicEvaluations = "evaluations"
)

// SolicitationTopic is the per-solicitation topic name.
func SolicitationTopic(solicitationID string) string {
	return "solicitation:" + strings.TrimSpace(solicitationID)
}

// ProposalTopic is the per-proposal topic name.
func ProposalTopic(proposalID string) string {
	return "proposal:" + strings.TrimSpace(proposalID)
}

// SolicitationTopics lists the topics a solicitation event fans out to.
func SolicitationTopics(solicitationID string) []string {
	return []string{SolicitationTopic(solicitationID), TopicSubmissions}
}

// ProposalTopics lists the topics a proposal event fans out to. Updates and
// deletes additionally reach watchers of the specific proposal.
func ProposalTopics(action Action, solicitationID, proposalID string) []string {
	topics := []string{SolicitationTopic(solicitationID), TopicSubmissions}
	if action != ActionCreate {
		topics = append(topics, ProposalTopic(proposalID))
	}
	return topics
}

// ScoreTopics lists the topics a score event fans out to.
func ScoreTopics(action Action, solicitationID, proposalID string) []string {
	topics := []string{SolicitationTopic(solicitationID), TopicEvaluations}
	if action != ActionCreate {
		topics = append(topics, ProposalTopic(proposalID))
	}
	return topics
}
