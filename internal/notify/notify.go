// Package notify writes per-user notifications and optionally mirrors
// important ones to email. Everything here is fire-and-forget: a delivery
// failure is logged and never propagated, so state transitions are not
// rolled back because an inbox write or an SMTP server misbehaved.
package notify

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/reclaim-dev/reclaim/internal/model"
	"github.com/reclaim-dev/reclaim/internal/store"
)

// Event is one notification to deliver.
type Event struct {
	Title   string
	Message string
	Type    string
	Link    string
	Email   bool // also mirror to email when a mailer is configured
}

// Mailer sends email. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(to, subject, body string) error
}

// Dispatcher delivers events as notification rows plus optional email.
type Dispatcher struct {
	DB      *sql.DB
	Mailer  Mailer // nil disables email
	BaseURL string // frontend base for deep links
}

// Notify delivers one event to one user.
func (d *Dispatcher) Notify(ctx context.Context, userID int64, ev Event) {
	if ev.Type == "" {
		ev.Type = model.NotifyTypeSystem
	}

	if _, err := store.CreateNotification(ctx, d.DB, userID, ev.Title, ev.Message, ev.Type, ev.Link); err != nil {
		slog.Error("writing notification", "user", userID, "title", ev.Title, "error", err)
		return
	}

	if ev.Email && d.Mailer != nil {
		user, err := store.GetUser(ctx, d.DB, userID)
		if err != nil || user == nil || user.Email == "" {
			return
		}
		if err := d.Mailer.Send(user.Email, ev.Title, ev.Message+"\n\n"+ev.Link); err != nil {
			slog.Warn("sending notification email", "user", userID, "error", err)
		}
	}
}

// MatchCreated notifies both parties of a new match with its confidence and
// a deep link to the match page.
func (d *Dispatcher) MatchCreated(ctx context.Context, match *model.Match, lost *model.LostItem, found *model.FoundItem) {
	link := fmt.Sprintf("%s/matches/%d", d.BaseURL, match.ID)

	d.Notify(ctx, lost.UserID, Event{
		Title:   "New match found!",
		Message: fmt.Sprintf("A potential match was found for your %s. Confidence: %d%%", lost.Category, match.Confidence),
		Type:    model.NotifyTypeMatch,
		Link:    link,
		Email:   true,
	})
	d.Notify(ctx, found.FinderID, Event{
		Title:   "Your found item matches a report!",
		Message: fmt.Sprintf("Someone lost a %s that matches the item you found. Confidence: %d%%", lost.Category, match.Confidence),
		Type:    model.NotifyTypeMatch,
		Link:    link,
		Email:   true,
	})
}

// ClaimInitiated notifies the finder that someone claimed their found item.
func (d *Dispatcher) ClaimInitiated(ctx context.Context, claim *model.Claim, finderID int64) {
	d.Notify(ctx, finderID, Event{
		Title:   "New ownership claim",
		Message: "Someone has claimed the item you found. They must verify ownership before any contact details are shared.",
		Type:    model.NotifyTypeClaim,
		Link:    fmt.Sprintf("%s/claims/%d", d.BaseURL, claim.ID),
	})
}

// ClaimNeedsReview notifies every admin that a claim passed automatic
// verification and awaits manual review.
func (d *Dispatcher) ClaimNeedsReview(ctx context.Context, claim *model.Claim) {
	admins, err := store.ListAdmins(ctx, d.DB)
	if err != nil {
		slog.Error("listing admins for review notification", "claim", claim.ID, "error", err)
		return
	}
	for _, admin := range admins {
		d.Notify(ctx, admin.ID, Event{
			Title:   "Claim awaiting review",
			Message: fmt.Sprintf("Claim #%d passed automatic verification and needs a manual decision.", claim.ID),
			Type:    model.NotifyTypeClaim,
			Link:    fmt.Sprintf("%s/admin/claims/%d", d.BaseURL, claim.ID),
		})
	}
}

// ClaimApproved notifies claimant and finder that the claim was approved.
func (d *Dispatcher) ClaimApproved(ctx context.Context, claim *model.Claim, finderID int64) {
	link := fmt.Sprintf("%s/claims/%d", d.BaseURL, claim.ID)
	d.Notify(ctx, claim.ClaimantID, Event{
		Title:   "Claim approved",
		Message: "Your ownership claim was approved. The original photo is now visible and chat with the finder is open.",
		Type:    model.NotifyTypeClaim,
		Link:    link,
		Email:   true,
	})
	d.Notify(ctx, finderID, Event{
		Title:   "Claim approved",
		Message: "The ownership claim on your found item was approved. You can now arrange the handover in chat.",
		Type:    model.NotifyTypeClaim,
		Link:    link,
	})
}

// ClaimRejected notifies the claimant, including the admin's reason.
func (d *Dispatcher) ClaimRejected(ctx context.Context, claim *model.Claim, reason string) {
	msg := "Your ownership claim was rejected."
	if reason != "" {
		msg += " Reason: " + reason
	}
	d.Notify(ctx, claim.ClaimantID, Event{
		Title:   "Claim rejected",
		Message: msg,
		Type:    model.NotifyTypeClaim,
		Link:    fmt.Sprintf("%s/claims/%d", d.BaseURL, claim.ID),
	})
}

// ClaimCompleted notifies both parties that the handover is finished.
func (d *Dispatcher) ClaimCompleted(ctx context.Context, claim *model.Claim, finderID int64) {
	for _, userID := range []int64{claim.ClaimantID, finderID} {
		d.Notify(ctx, userID, Event{
			Title:   "Item handed over",
			Message: "The claim is complete and the item has been returned to its owner.",
			Type:    model.NotifyTypeClaim,
		})
	}
}
