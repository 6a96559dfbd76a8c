package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/mo"

	"planner/internal/model"
)

// patchBody tells absent keys from explicit nulls, which a struct decode
// cannot do.
type patchBody struct {
	fields map[string]json.RawMessage
	errs   []error
}

func newPatchBody(data []byte) (*patchBody, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, badRequest("body must be a JSON object: %v", err)
	}
	return &patchBody{fields: fields}, nil
}

func (b *patchBody) err() error {
	if len(b.errs) == 0 {
		return nil
	}
	return badRequest("%v", errors.Join(b.errs...))
}

// optional reads a field that may be absent but not null.
func optional[T any](b *patchBody, key string) mo.Option[T] {
	raw, ok := b.fields[key]
	if !ok {
		return mo.None[T]()
	}
	if string(raw) == "null" {
		b.errs = append(b.errs, fmt.Errorf("%s cannot be null", key))
		return mo.None[T]()
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		b.errs = append(b.errs, fmt.Errorf("%s: %w", key, err))
		return mo.None[T]()
	}
	return mo.Some(v)
}

// nullable reads a field where null clears the stored value.
func nullable[T any](b *patchBody, key string) mo.Option[*T] {
	raw, ok := b.fields[key]
	if !ok {
		return mo.None[*T]()
	}
	var v *T
	if err := json.Unmarshal(raw, &v); err != nil {
		b.errs = append(b.errs, fmt.Errorf("%s: %w", key, err))
		return mo.None[*T]()
	}
	return mo.Some(v)
}

func decodeTaskPatch(data []byte) (model.TaskPatch, error) {
	b, err := newPatchBody(data)
	if err != nil {
		return model.TaskPatch{}, err
	}
	patch := model.TaskPatch{
		Title:       optional[string](b, "title"),
		Description: nullable[string](b, "description"),
		IsCompleted: optional[bool](b, "isCompleted"),
		IsImportant: optional[bool](b, "isImportant"),
		GroupID:     nullable[string](b, "groupId"),

		Scope:       optional[model.Scope](b, "scope"),
		DueDate:     nullable[string](b, "dueDate"),
		DueTime:     nullable[string](b, "dueTime"),
		TargetWeek:  nullable[string](b, "targetWeek"),
		TargetMonth: nullable[string](b, "targetMonth"),

		IsRecurring:        optional[bool](b, "isRecurring"),
		RecurrencePattern:  nullable[model.Pattern](b, "recurrencePattern"),
		RecurrenceInterval: optional[int](b, "recurrenceInterval"),
		RecurrenceEndDate:  nullable[string](b, "recurrenceEndDate"),
	}

	// null days means "no specific weekdays", the same as an empty list.
	if days := nullable[[]int](b, "recurrenceDays"); days.IsPresent() {
		var list []int
		if p, _ := days.Get(); p != nil {
			list = *p
		}
		patch.RecurrenceDays = mo.Some(list)
	}
	if subtasks := nullable[[]model.SubtaskDraft](b, "subtasks"); subtasks.IsPresent() {
		var list []model.SubtaskDraft
		if p, _ := subtasks.Get(); p != nil {
			list = *p
		}
		patch.Subtasks = mo.Some(list)
	}
	return patch, b.err()
}

func decodeGroupPatch(data []byte) (model.GroupPatch, error) {
	b, err := newPatchBody(data)
	if err != nil {
		return model.GroupPatch{}, err
	}
	patch := model.GroupPatch{
		Name:  optional[string](b, "name"),
		Color: optional[string](b, "color"),
	}
	return patch, b.err()
}

func decodeSubtaskPatch(data []byte) (model.SubtaskPatch, error) {
	b, err := newPatchBody(data)
	if err != nil {
		return model.SubtaskPatch{}, err
	}
	patch := model.SubtaskPatch{
		Title:       optional[string](b, "title"),
		IsCompleted: optional[bool](b, "isCompleted"),
		Position:    optional[int](b, "position"),
	}
	return patch, b.err()
}
