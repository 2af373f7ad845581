// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"strings"

	"github.com/avolkov/robocontest/models"
	"github.com/avolkov/robocontest/repository"
)

// Recipient is one resolved delivery target. TeamID is set for
// team-targeted selections so the delivery record links back to the team
// that owned the address at resolution time.
type Recipient struct {
	Email  string
	Name   *string
	TeamID *uint
}

// RecipientSelection describes who a mailing should reach. It mirrors the
// targeting columns on MailingCampaign so the same selection can be
// resolved before a campaign exists (preview) and again at dispatch time.
type RecipientSelection struct {
	TargetType      models.MailingTargetType
	TargetSeasonID  *uint
	CustomEmails    []string
	RecipientsLimit *int
}

// ResolvedRecipients is the outcome of resolving a selection.
// TotalAvailable counts distinct addresses before the limit is applied.
type ResolvedRecipients struct {
	Recipients     []Recipient
	TotalAvailable int
}

// RecipientResolver turns a targeting selection into an ordered,
// deduplicated recipient list. Resolution runs against live data, so the
// same selection can produce different lists at different times; the
// dispatcher resolves again at send time rather than trusting a list
// computed when the campaign was drafted.
type RecipientResolver interface {
	Resolve(ctx context.Context, selection RecipientSelection) (*ResolvedRecipients, error)
}

type RecipientResolverImpl struct {
	teamRepo repository.TeamRepository
}

func NewRecipientResolver(teamRepo repository.TeamRepository) RecipientResolver {
	return &RecipientResolverImpl{teamRepo: teamRepo}
}

// Resolve deduplicates by exact address keeping the first occurrence, then
// applies RecipientsLimit as a ceiling on the deduplicated list. Team
// selections arrive newest first, so the ceiling keeps the most recently
// registered teams.
func (r *RecipientResolverImpl) Resolve(ctx context.Context, selection RecipientSelection) (*ResolvedRecipients, error) {
	var recipients []Recipient

	switch selection.TargetType {
	case models.MailingTargetCustomEmails:
		recipients = resolveCustomEmails(selection.CustomEmails)
	case models.MailingTargetAllTeams:
		teams, err := r.teamRepo.ListRecipients(ctx, nil, selection.TargetSeasonID)
		if err != nil {
			return nil, err
		}
		recipients = dedupTeamRecipients(teams)
	case models.MailingTargetApprovedTeams:
		teams, err := r.teamRepo.ListRecipients(ctx, []models.TeamStatus{models.TeamStatusApproved}, selection.TargetSeasonID)
		if err != nil {
			return nil, err
		}
		recipients = dedupTeamRecipients(teams)
	case models.MailingTargetPendingTeams:
		teams, err := r.teamRepo.ListRecipients(ctx, []models.TeamStatus{models.TeamStatusPending}, selection.TargetSeasonID)
		if err != nil {
			return nil, err
		}
		recipients = dedupTeamRecipients(teams)
	default:
		return nil, ErrUnknownTargetType
	}

	total := len(recipients)
	if selection.RecipientsLimit != nil && *selection.RecipientsLimit >= 0 && *selection.RecipientsLimit < total {
		recipients = recipients[:*selection.RecipientsLimit]
	}

	return &ResolvedRecipients{
		Recipients:     recipients,
		TotalAvailable: total,
	}, nil
}

func resolveCustomEmails(emails []string) []Recipient {
	seen := make(map[string]struct{}, len(emails))
	out := make([]Recipient, 0, len(emails))
	for _, raw := range emails {
		email := strings.TrimSpace(raw)
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, Recipient{Email: email})
	}
	return out
}

func dedupTeamRecipients(teams []*models.Team) []Recipient {
	seen := make(map[string]struct{}, len(teams))
	out := make([]Recipient, 0, len(teams))
	for _, team := range teams {
		if team == nil {
			continue
		}
		email := strings.TrimSpace(team.Email)
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		name := team.Name
		teamID := team.ID
		out = append(out, Recipient{Email: email, Name: &name, TeamID: &teamID})
	}
	return out
}
