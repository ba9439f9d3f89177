package mapper

import (
	"smart-planner/modules/planner/dto"
	"smart-planner/modules/planner/entity"
)

const dateLayout = "2006-01-02"

func ToEventResponse(e entity.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		StartTime:   e.Start,
		EndTime:     e.End,
		AllDay:      e.AllDay,
		Location:    e.Location,
		Type:        string(entity.NormalizeCategory(string(e.Category))),
	}
}

func ToWeeklyHoursResponse(view entity.WeekView) dto.WeeklyHoursResponse {
	h := view.Summary
	return dto.WeeklyHoursResponse{
		WeekStart: view.WeekStart.Format(dateLayout),
		WeekEnd:   view.WeekEnd.Format(dateLayout),
		Focus:     h.Focus,
		Tasks:     h.Tasks,
		Target:    h.Target,
		Other:     h.Other,
		Free:      h.Free,
		HasEvents: h.HasEvents(),
	}
}

func ToWeekViewResponse(view entity.WeekView) *dto.WeekViewResponse {
	res := &dto.WeekViewResponse{
		WeekStart: view.WeekStart.Format(dateLayout),
		WeekEnd:   view.WeekEnd.Format(dateLayout),
		Hours:     ToWeeklyHoursResponse(view),
		Hidden:    view.Hidden,
		Days:      make([]dto.DayResponse, 0, len(view.Days)),
	}
	for _, day := range view.Days {
		d := dto.DayResponse{
			Date:    day.Date.Format(dateLayout),
			Weekday: day.Date.Weekday().String(),
			Slots:   make([]dto.SlotResponse, 0, len(view.Hours)),
		}
		for i, hour := range view.Hours {
			slot := dto.SlotResponse{Hour: hour, Label: view.Labels[i], Events: []dto.PlacedEventResponse{}}
			for _, p := range day.Slots[i] {
				slot.Events = append(slot.Events, dto.PlacedEventResponse{
					EventResponse: ToEventResponse(p.Event),
					TopPercent:    p.Placement.TopPercent,
					HeightPercent: p.Placement.HeightPercent,
				})
			}
			d.Slots = append(d.Slots, slot)
		}
		res.Days = append(res.Days, d)
	}
	return res
}

func ToOptimizedEntryDTOs(entries []entity.OptimizedEntry) []dto.OptimizedEntryDTO {
	out := make([]dto.OptimizedEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.OptimizedEntryDTO{
			Title:       e.Title,
			Description: e.Description,
			StartTime:   e.Start,
			EndTime:     e.End,
			Location:    e.Location,
			Type:        e.Category,
		})
	}
	return out
}

func ToMergeResponse(res entity.MergeResult, message string) *dto.MergeResponse {
	out := &dto.MergeResponse{
		BatchID:  res.BatchID,
		Success:  res.Success(),
		Message:  message,
		Created:  res.Created,
		Updated:  res.Updated,
		Failed:   res.Failed,
		Outcomes: make([]dto.OpOutcomeResponse, 0, len(res.Outcomes)),
	}
	for _, o := range res.Outcomes {
		item := dto.OpOutcomeResponse{
			Index:   o.Op.Index,
			Kind:    string(o.Op.Kind),
			EventID: o.Op.EventID,
			Title:   o.Op.Draft.Title,
			Success: o.OK(),
		}
		if o.Err != nil {
			item.Error = o.Err.Error()
		}
		if o.Event != nil {
			ev := ToEventResponse(*o.Event)
			item.Event = &ev
			item.EventID = o.Event.ID
		}
		out.Outcomes = append(out.Outcomes, item)
	}
	return out
}
