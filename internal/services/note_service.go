package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
	"tpog/internal/repositories"
	"tpog/internal/utils"
)

// NotePublisher receives note changes for realtime delivery.
type NotePublisher interface {
	Publish(ctx context.Context, ev models.NoteEvent)
}

// NoteService manages weekly feedback notes keyed by normalized driver name
// and date.
type NoteService struct {
	Repo      NoteStore
	Publisher NotePublisher
	RequestID string
	Now       func() time.Time
}

type NoteInput struct {
	DriverName string
	Date       string
	Body       string
}

// NoteQuery filters List; Driver is matched by normalized name.
type NoteQuery struct {
	Driver string
	From   string
	To     string
}

func (s NoteService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

func (s NoteService) Upsert(ctx context.Context, rc domain.RequestContext, in NoteInput) (models.WeeklyNote, error) {
	fields := map[string]string{}
	key := utils.NormalizeDriverName(in.DriverName)
	if key == "" {
		fields["driver_name"] = "required"
	}
	date, err := domain.NormalizePayDate(in.Date)
	if err != nil {
		fields["date"] = "must be YYYY-MM-DD"
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		fields["body"] = "required"
	}
	if len(fields) > 0 {
		return models.WeeklyNote{}, domain.ValidationError{Msg: "invalid note", Fields: fields}
	}

	now := s.now()
	n, err := s.Repo.Upsert(ctx, models.WeeklyNote{
		DriverKey:  key,
		DriverName: utils.NormalizeSpace(in.DriverName),
		Date:       date,
		Body:       body,
		Author:     rc.Actor(),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return models.WeeklyNote{}, err
	}
	s.publish(ctx, models.NoteEvent{Type: models.NoteUpserted, Note: n})
	utils.LogEvent(s.RequestID, "notes", "upsert", fmt.Sprintf("id=%d driver=%s date=%s by=%s", n.ID, key, date, n.Author))
	return n, nil
}

func (s NoteService) List(ctx context.Context, q NoteQuery) ([]models.WeeklyNote, error) {
	f := repositories.NoteFilter{DriverKey: utils.NormalizeDriverName(q.Driver)}
	var err error
	if q.From != "" {
		if f.From, err = domain.NormalizePayDate(q.From); err != nil {
			return nil, domain.ValidationError{Field: "from", Msg: "must be YYYY-MM-DD"}
		}
	}
	if q.To != "" {
		if f.To, err = domain.NormalizePayDate(q.To); err != nil {
			return nil, domain.ValidationError{Field: "to", Msg: "must be YYYY-MM-DD"}
		}
	}
	return s.Repo.List(ctx, f)
}

func (s NoteService) Delete(ctx context.Context, rc domain.RequestContext, id int64) error {
	if id <= 0 {
		return domain.ValidationError{Field: "id", Msg: "invalid id"}
	}
	n, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, models.NoteEvent{Type: models.NoteDeleted, Note: n})
	utils.LogEvent(s.RequestID, "notes", "delete", fmt.Sprintf("id=%d by=%s", id, rc.Actor()))
	return nil
}

func (s NoteService) publish(ctx context.Context, ev models.NoteEvent) {
	if s.Publisher != nil {
		s.Publisher.Publish(ctx, ev)
	}
}
