package domain

import (
	"errors"
	"testing"
	"time"
)

func validTeam() []TeamMember {
	return []TeamMember{{
		Name:       "Ada Osei",
		Experience: "Nine years of data engineering.",
		Documents:  []string{"doc-cv"},
	}}
}

func TestCreateProposalNormalizesTeam(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	proposal, err := CreateProposal(SubmitProposalInput{
		SolicitationID: " sol-1 ",
		FinancialOffer: 1000,
		Team: []TeamMember{{
			Name:       "  Ada Osei ",
			Experience: " Nine years of data engineering. ",
			Documents:  []string{" doc-cv "},
		}},
		DeclarationAccepted: true,
	}, "bidder-1", fixedClock(now), staticID("prop-1"))
	if err != nil {
		t.Fatalf("create proposal: %v", err)
	}

	if proposal.SolicitationID != "sol-1" {
		t.Fatalf("expected trimmed solicitation id, got %q", proposal.SolicitationID)
	}
	if proposal.Team[0].Name != "Ada Osei" || proposal.Team[0].Documents[0] != "doc-cv" {
		t.Fatalf("expected trimmed team fields, got %+v", proposal.Team[0])
	}
	if proposal.Assessment != nil {
		t.Fatal("expected no assessment on a fresh proposal")
	}
}

func TestCreateProposalValidation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	base := SubmitProposalInput{
		SolicitationID:      "sol-1",
		FinancialOffer:      1000,
		Team:                validTeam(),
		DeclarationAccepted: true,
	}

	cases := []struct {
		name    string
		mutate  func(*SubmitProposalInput)
		wantErr error
	}{
		{"negative offer", func(in *SubmitProposalInput) { in.FinancialOffer = -1 }, ErrOfferNegative},
		{"empty team", func(in *SubmitProposalInput) { in.Team = nil }, ErrTeamEmpty},
		{"member without name", func(in *SubmitProposalInput) {
			in.Team = []TeamMember{{Experience: "x", Documents: []string{"d"}}}
		}, ErrTeamMemberInvalid},
		{"member without experience", func(in *SubmitProposalInput) {
			in.Team = []TeamMember{{Name: "x", Documents: []string{"d"}}}
		}, ErrTeamMemberInvalid},
		{"member without documents", func(in *SubmitProposalInput) {
			in.Team = []TeamMember{{Name: "x", Experience: "y"}}
		}, ErrTeamMemberInvalid},
		{"member with four documents", func(in *SubmitProposalInput) {
			in.Team = []TeamMember{{Name: "x", Experience: "y", Documents: []string{"a", "b", "c", "d"}}}
		}, ErrTeamMemberInvalid},
		{"declaration not accepted", func(in *SubmitProposalInput) { in.DeclarationAccepted = false }, ErrDeclarationRequired},
	}
	for _, tc := range cases {
		input := base
		tc.mutate(&input)
		if _, err := CreateProposal(input, "bidder-1", fixedClock(now), staticID("prop-1")); !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}

	if _, err := CreateProposal(SubmitProposalInput{
		SolicitationID:      "sol-1",
		FinancialOffer:      0,
		Team:                validTeam(),
		DeclarationAccepted: true,
	}, "bidder-1", fixedClock(now), staticID("prop-1")); err != nil {
		t.Fatalf("zero offer should be accepted: %v", err)
	}
}

func TestProposalApplyUpdateLeavesAssessmentAlone(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	proposal, err := CreateProposal(SubmitProposalInput{
		SolicitationID:      "sol-1",
		FinancialOffer:      1000,
		Team:                validTeam(),
		DeclarationAccepted: true,
	}, "bidder-1", fixedClock(now), staticID("prop-1"))
	if err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	proposal.Assessment = &Assessment{OverallScore: 72, Summary: "solid fit"}

	offer := 900.0
	updated, err := proposal.ApplyUpdate(UpdateProposalInput{FinancialOffer: &offer}, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("apply update: %v", err)
	}
	if updated.FinancialOffer != 900 {
		t.Fatalf("expected patched offer, got %v", updated.FinancialOffer)
	}
	if updated.Assessment == nil || updated.Assessment.OverallScore != 72 {
		t.Fatal("expected assessment to carry over unchanged")
	}

	negative := -5.0
	if _, err := proposal.ApplyUpdate(UpdateProposalInput{FinancialOffer: &negative}, now); !errors.Is(err, ErrOfferNegative) {
		t.Fatalf("expected ErrOfferNegative, got %v", err)
	}
	retract := false
	if _, err := proposal.ApplyUpdate(UpdateProposalInput{DeclarationAccepted: &retract}, now); !errors.Is(err, ErrDeclarationRequired) {
		t.Fatalf("expected ErrDeclarationRequired, got %v", err)
	}
}
