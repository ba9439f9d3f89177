package mapper

import (
	"smart-planner/modules/event/dto"
	"smart-planner/modules/event/entity"
	plannerEntity "smart-planner/modules/planner/entity"

	"github.com/google/uuid"
)

func ToEventResponse(e entity.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:          e.ID.String(),
		Title:       e.Title,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		AllDay:      e.AllDay,
		Location:    e.Location,
		Type:        string(plannerEntity.NormalizeCategory(e.Type)),
	}
}

func ToEventResponses(events []entity.Event) []dto.EventResponse {
	out := make([]dto.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, ToEventResponse(e))
	}
	return out
}

func FromPlannerEvent(e plannerEntity.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		StartTime:   e.Start,
		EndTime:     e.End,
		AllDay:      e.AllDay,
		Location:    e.Location,
		Type:        string(plannerEntity.NormalizeCategory(string(e.Category))),
	}
}

func ToPlannerEvent(e entity.Event) plannerEntity.Event {
	return plannerEntity.Event{
		ID:          e.ID.String(),
		Title:       e.Title,
		Start:       e.StartTime,
		End:         e.EndTime,
		Category:    plannerEntity.NormalizeCategory(e.Type),
		Description: e.Description,
		Location:    e.Location,
		AllDay:      e.AllDay,
	}
}

func ToPlannerEvents(events []entity.Event) []plannerEntity.Event {
	out := make([]plannerEntity.Event, 0, len(events))
	for _, e := range events {
		out = append(out, ToPlannerEvent(e))
	}
	return out
}

func FromDraft(userID uuid.UUID, d plannerEntity.EventDraft) entity.Event {
	return entity.Event{
		UserID:      userID,
		Title:       d.Title,
		Description: d.Description,
		StartTime:   d.Start,
		EndTime:     d.End,
		AllDay:      d.AllDay,
		Location:    d.Location,
		Type:        string(plannerEntity.NormalizeCategory(string(d.Category))),
	}
}
