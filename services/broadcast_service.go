package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/kendall-kelly/storefront-api/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BroadcastInput is a superadmin email to store owners
type BroadcastInput struct {
	Subject string `json:"subject" binding:"required,max=200"`
	Body    string `json:"body" binding:"required"`
	Plan    string `json:"plan" binding:"omitempty,oneof=free start business"`
}

// BroadcastRecipients returns the emails of active owners, optionally only those
// with a store on plan
func BroadcastRecipients(ctx context.Context, db *gorm.DB, plan string) ([]string, error) {
	q := db.WithContext(ctx).Model(&models.User{}).
		Where("users.role = ? AND users.active = ?", models.RoleOwner, true)
	if plan != "" {
		q = q.Where("EXISTS (SELECT 1 FROM stores WHERE stores.owner_id = users.id AND stores.plan = ?)", plan)
	}

	var emails []string
	if err := q.Order("users.id").Pluck("users.email", &emails).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipients: %w", err)
	}
	return emails, nil
}

// SendBroadcast emails every recipient one after another within the request and stores
// the outcome. Individual delivery failures are counted, not returned.
func SendBroadcast(ctx context.Context, db *gorm.DB, sender EmailSender, log logrus.FieldLogger, sentBy *models.User, in BroadcastInput) (*models.Broadcast, error) {
	if sender == nil {
		return nil, newServiceError(CodeValidation, "Email delivery is not configured")
	}

	recipients, err := BroadcastRecipients(ctx, db, in.Plan)
	if err != nil {
		return nil, err
	}

	broadcast := &models.Broadcast{
		Subject:    strings.TrimSpace(in.Subject),
		Body:       in.Body,
		Plan:       in.Plan,
		SentByID:   sentBy.ID,
		Recipients: len(recipients),
	}

	htmlBody := broadcastHTML(in.Body)
	for _, to := range recipients {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := sender.Send(ctx, to, broadcast.Subject, htmlBody); err != nil {
			broadcast.Failed++
			log.WithError(err).WithField("recipient", to).Warn("Broadcast delivery failed")
			continue
		}
		broadcast.Sent++
	}

	switch {
	case broadcast.Sent == broadcast.Recipients:
		broadcast.Status = models.BroadcastStatusSent
	case broadcast.Sent > 0:
		broadcast.Status = models.BroadcastStatusPartial
	default:
		broadcast.Status = models.BroadcastStatusFailed
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(broadcast).Error; err != nil {
			return fmt.Errorf("failed to save broadcast: %w", err)
		}
		userID := sentBy.ID
		return RecordEvent(tx, models.EventBroadcastSent, nil, &userID,
			fmt.Sprintf("Рассылка «%s»: %d из %d", broadcast.Subject, broadcast.Sent, broadcast.Recipients),
			map[string]interface{}{"broadcast_id": broadcast.ID, "status": broadcast.Status})
	})
	if err != nil {
		return nil, err
	}
	return broadcast, nil
}

// ListBroadcasts returns the broadcast history newest first, optionally only entries
// created after since
func ListBroadcasts(ctx context.Context, db *gorm.DB, since *time.Time) ([]models.Broadcast, error) {
	q := db.WithContext(ctx).Model(&models.Broadcast{})
	if since != nil {
		q = q.Where("created_at > ?", *since)
	}
	var broadcasts []models.Broadcast
	if err := q.Order("created_at DESC").Order("id DESC").Limit(100).Find(&broadcasts).Error; err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	return broadcasts, nil
}

// broadcastHTML escapes the plain text body and keeps its paragraphs and line breaks
func broadcastHTML(body string) string {
	var b strings.Builder
	for _, para := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
