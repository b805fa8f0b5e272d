// Package service coordinates availability queries and the two-system
// booking writes: calendar first, CRM second, with compensation when the
// second write fails.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotkeeper/internal/assignment"
	"slotkeeper/internal/availability"
	"slotkeeper/internal/booking/events"
	"slotkeeper/internal/booking/guard"
	"slotkeeper/internal/booking/outbox"
	"slotkeeper/internal/booking/validator"
	"slotkeeper/internal/calendar"
	"slotkeeper/internal/candidates"
	"slotkeeper/internal/crm"
	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/flow"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
	"slotkeeper/pkg/retry"
)

type BookingService interface {
	Availability(ctx context.Context, req model.AvailabilityRequest) (*AvailabilityResponse, error)
	Book(ctx context.Context, req model.BookRequest) (*model.Booking, error)
	Reschedule(ctx context.Context, req model.RescheduleRequest) (*model.Booking, error)
	Cancel(ctx context.Context, req model.CancelRequest) (*model.Booking, error)
}

type CalendarWriter interface {
	CreateEvent(ctx context.Context, calendarID string, event calendar.Event) (string, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

type IdentityResolver interface {
	Resolve(ctx context.Context, email string) (string, error)
}

type Directory interface {
	Snapshot(ctx context.Context) (*model.DirectorySnapshot, error)
}

type Dependencies struct {
	CRM       crm.Store
	Calendar  CalendarWriter
	Identity  IdentityResolver
	Directory Directory
	Filter    *candidates.Filter
	Busy      availability.BusyFetcher
	Engine    *availability.Engine
	Cursors   assignment.CursorStore
	Guard     guard.SlotGuard
	Outbox    outbox.Enqueuer
	Events    events.Publisher
}

type Options struct {
	Location        *time.Location
	Template        model.SlotTemplate
	GuardTTL        time.Duration
	CalendarTimeout time.Duration
	CRMTimeout      time.Duration
	DeleteRetry     retry.Policy
	Now             func() time.Time
}

type AvailabilityResponse struct {
	MerchantID        string                   `json:"merchant_id"`
	BookingType       model.BookingType        `json:"booking_type"`
	UseExternalVendor bool                     `json:"use_external_vendor"`
	ExternalVendors   []model.Candidate        `json:"external_vendors,omitempty"`
	Locations         []model.LocationCategory `json:"locations,omitempty"`
	Days              []model.DayAvailability  `json:"days"`
}

// bookingState is threaded through the step flows of one attempt.
type bookingState struct {
	attempt      *Attempt
	merchantID   string
	bookingType  model.BookingType
	date         string
	slotLabel    string
	preference   string
	allowWeekend bool
	status       model.BookingStatus

	merchant model.MerchantData
	fields   model.BookingFields
	snapshot *model.DirectorySnapshot
	pool     []model.Candidate
	slotDef  model.SlotDefinition
	slot     model.TimeSlot
	eligible []model.Candidate
	assignee model.Candidate
	reason   assignment.Reason

	guardKey        string
	calendarID      string
	eventID         string
	previousDeleted bool
	noop            bool
	result          *model.Booking
}

type Coordinator struct {
	deps      Dependencies
	opts      Options
	validator *validator.BookingValidator
	log       *logger.Logger

	bookFlow       *flow.Flow[bookingState]
	rescheduleFlow *flow.Flow[bookingState]
	cancelFlow     *flow.Flow[bookingState]
}

func NewCoordinator(deps Dependencies, opts Options, v *validator.BookingValidator, log *logger.Logger) *Coordinator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.GuardTTL <= 0 {
		opts.GuardTTL = 2 * time.Minute
	}
	if opts.CalendarTimeout <= 0 {
		opts.CalendarTimeout = 10 * time.Second
	}
	if opts.CRMTimeout <= 0 {
		opts.CRMTimeout = 10 * time.Second
	}
	if opts.DeleteRetry == (retry.Policy{}) {
		opts.DeleteRetry = retry.DefaultPolicy()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}

	c := &Coordinator{
		deps:      deps,
		opts:      opts,
		validator: v,
		log:       log.Component("booking"),
	}

	load := flow.NewStep("load_record", c.loadRecord)
	resolveSlot := flow.NewStep("resolve_slot", c.resolveSlot)
	selectCandidates := flow.NewStep("select_candidates", c.selectCandidates)
	commit := []flow.Step[bookingState]{
		flow.NewStep("find_eligible", c.findEligible),
		flow.NewStep("assign", c.assign),
		flow.NewStep("guard_slot", c.guardSlot),
		flow.NewStep("recheck_busy", c.recheckBusy),
		flow.NewStep("write_calendar", c.writeCalendar),
		flow.NewStep("write_crm", c.writeCRM),
	}

	c.bookFlow = flow.New("book",
		load,
		flow.NewStep("reject_active", c.rejectActive),
		resolveSlot,
		selectCandidates,
	).Then("book", commit...)

	// Slot and pool are settled before the previous event is touched, and the
	// previous event is gone before the new one is created.
	c.rescheduleFlow = flow.New("reschedule",
		load,
		resolveSlot,
		selectCandidates,
		flow.NewStep("delete_previous", c.deletePrevious),
	).Then("reschedule", commit...)

	c.cancelFlow = flow.New("cancel",
		load,
		flow.NewStep("check_cancellable", c.checkCancellable),
		flow.NewStep("delete_current", c.deleteCurrent),
		flow.NewStep("clear_crm", c.clearCRM),
	)
	return c
}

func (c *Coordinator) Availability(ctx context.Context, req model.AvailabilityRequest) (*AvailabilityResponse, error) {
	if err := c.validate(&req); err != nil {
		return nil, err
	}

	from, err := time.ParseInLocation(model.DateLayout, req.From, c.opts.Location)
	if err != nil {
		return nil, apperrors.InvalidInput("from must be a YYYY-MM-DD date")
	}
	to, err := time.ParseInLocation(model.DateLayout, req.To, c.opts.Location)
	if err != nil {
		return nil, apperrors.InvalidInput("to must be a YYYY-MM-DD date")
	}

	merchant, err := c.readMerchant(ctx, req.MerchantID)
	if err != nil {
		return nil, err
	}
	snapshot, err := c.deps.Directory.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	outcome := c.deps.Filter.Filter(
		snapshot.ByRole(req.BookingType.RoleFor()),
		req.BookingType,
		merchant.Address,
		merchant.Language,
		model.ParseServiceType(merchant.ServiceTypeText),
	)

	resp := &AvailabilityResponse{
		MerchantID:  req.MerchantID,
		BookingType: req.BookingType,
		Locations:   outcome.Locations,
		Days:        []model.DayAvailability{},
	}
	if outcome.UseExternalVendor {
		resp.UseExternalVendor = true
		resp.ExternalVendors = activeOnly(snapshot.ByRole(model.RoleExternalVendor))
		c.log.Info("Merchant outside internal coverage, external vendor required",
			"merchant_id", req.MerchantID,
			"locations", outcome.Locations,
		)
		return resp, nil
	}

	days, err := c.deps.Engine.Compute(ctx, outcome.Candidates, model.DateRange{
		From:            from,
		To:              to,
		IncludeWeekends: req.IncludeWeekends,
	}, c.opts.Template)
	if err != nil {
		return nil, err
	}
	resp.Days = days
	return resp, nil
}

func (c *Coordinator) Book(ctx context.Context, req model.BookRequest) (*model.Booking, error) {
	if err := c.validate(&req); err != nil {
		return nil, err
	}
	st := &bookingState{
		attempt:      newAttempt(OpBook, req.MerchantID, req.BookingType, c.log),
		merchantID:   req.MerchantID,
		bookingType:  req.BookingType,
		date:         req.Date,
		slotLabel:    req.SlotLabel,
		preference:   req.AssigneePreference,
		allowWeekend: req.AllowWeekend,
		status:       model.StatusScheduled,
	}
	return c.run(ctx, c.bookFlow, st, events.TypeConfirmed)
}

func (c *Coordinator) Reschedule(ctx context.Context, req model.RescheduleRequest) (*model.Booking, error) {
	if err := c.validate(&req); err != nil {
		return nil, err
	}
	st := &bookingState{
		attempt:      newAttempt(OpReschedule, req.MerchantID, req.BookingType, c.log),
		merchantID:   req.MerchantID,
		bookingType:  req.BookingType,
		date:         req.Date,
		slotLabel:    req.SlotLabel,
		allowWeekend: req.AllowWeekend,
		status:       model.StatusRescheduled,
	}
	return c.run(ctx, c.rescheduleFlow, st, events.TypeRescheduled)
}

// Cancel is idempotent: cancelling a booking that never existed or was
// already cancelled succeeds without touching either system.
func (c *Coordinator) Cancel(ctx context.Context, req model.CancelRequest) (*model.Booking, error) {
	if err := c.validate(&req); err != nil {
		return nil, err
	}
	st := &bookingState{
		attempt:     newAttempt(OpCancel, req.MerchantID, req.BookingType, c.log),
		merchantID:  req.MerchantID,
		bookingType: req.BookingType,
		status:      model.StatusCancelled,
	}
	return c.run(ctx, c.cancelFlow, st, events.TypeCancelled)
}

func (c *Coordinator) run(ctx context.Context, f *flow.Flow[bookingState], st *bookingState, successType string) (*model.Booking, error) {
	err := f.Run(ctx, st)

	if st.guardKey != "" {
		if relErr := c.deps.Guard.Release(context.WithoutCancel(ctx), st.guardKey, st.attempt.ID); relErr != nil {
			st.attempt.log.Warn("Failed to release slot guard", "key", st.guardKey, "error", relErr)
		}
	}

	if err != nil {
		appErr := classify(err)
		var stepErr *flow.StepError
		if errors.As(err, &stepErr) {
			st.attempt.log.Warn("Booking flow stopped", "step", stepErr.Step, "code", appErr.Code, "side", appErr.Side)
		}
		if st.previousDeleted {
			appErr = appErr.WithDetail("previous_event_deleted", true)
			st.attempt.log.Error("Reschedule failed after the previous event was deleted, CRM still references it",
				"event_id", st.fields.EventID,
				"error", err,
			)
		}
		st.attempt.fail(err)
		c.publish(ctx, st, events.TypeFailed, appErr)
		return nil, appErr
	}

	if st.noop {
		st.attempt.log.Info("Nothing to cancel")
		return st.result, nil
	}
	c.publish(ctx, st, successType, nil)
	return st.result, nil
}

func (c *Coordinator) loadRecord(ctx context.Context, st *bookingState) error {
	merchant, err := c.readMerchant(ctx, st.merchantID)
	if err != nil {
		return err
	}

	crmCtx, cancel := context.WithTimeout(ctx, c.opts.CRMTimeout)
	defer cancel()
	fields, err := c.deps.CRM.ReadBookingFields(crmCtx, st.merchantID, st.bookingType)
	if err != nil {
		return crmReadError(err)
	}
	if fields.RecordID == "" {
		fields.RecordID = crm.RecordID(st.merchantID, st.bookingType)
	}
	st.merchant = merchant
	st.fields = fields
	return nil
}

func (c *Coordinator) readMerchant(ctx context.Context, merchantID string) (model.MerchantData, error) {
	crmCtx, cancel := context.WithTimeout(ctx, c.opts.CRMTimeout)
	defer cancel()
	merchant, err := c.deps.CRM.ReadMerchant(crmCtx, merchantID)
	if err != nil {
		return model.MerchantData{}, crmReadError(err)
	}
	return merchant, nil
}

func (c *Coordinator) rejectActive(ctx context.Context, st *bookingState) error {
	if st.fields.Status.Live() && st.fields.EventID != "" {
		return apperrors.Conflict("merchant already holds an active booking of this type, reschedule or cancel it").
			WithDetail("date", st.fields.Date).
			WithDetail("slot", st.fields.SlotLabel)
	}
	return nil
}

func (c *Coordinator) resolveSlot(ctx context.Context, st *bookingState) error {
	def, ok := c.opts.Template.Find(st.slotLabel)
	if !ok {
		return apperrors.InvalidInput(fmt.Sprintf("unknown slot %q", st.slotLabel))
	}
	day, err := time.ParseInLocation(model.DateLayout, st.date, c.opts.Location)
	if err != nil {
		return apperrors.InvalidInput("date must be a YYYY-MM-DD date")
	}
	if model.IsWeekend(day) && !st.allowWeekend {
		return apperrors.InvalidInput("weekend dates require allow_weekend")
	}
	slot := def.On(day, c.opts.Location)
	if !slot.Start.After(c.opts.Now()) {
		return apperrors.InvalidInput("slot has already started")
	}
	st.slotDef = def
	st.slot = slot
	return nil
}

func (c *Coordinator) selectCandidates(ctx context.Context, st *bookingState) error {
	snapshot, err := c.deps.Directory.Snapshot(ctx)
	if err != nil {
		return err
	}
	st.snapshot = snapshot

	outcome := c.deps.Filter.Filter(
		snapshot.ByRole(st.bookingType.RoleFor()),
		st.bookingType,
		st.merchant.Address,
		st.merchant.Language,
		model.ParseServiceType(st.merchant.ServiceTypeText),
	)
	if outcome.UseExternalVendor {
		return apperrors.NoAssigneeAvailable(true).WithDetail("locations", outcome.Locations)
	}
	if len(outcome.Candidates) == 0 {
		return apperrors.NoAssigneeAvailable(false)
	}
	st.pool = outcome.Candidates
	return nil
}

func (c *Coordinator) findEligible(ctx context.Context, st *bookingState) error {
	day := st.slot.Start.In(c.opts.Location)
	grid, err := c.deps.Engine.Compute(ctx, st.pool, model.DateRange{
		From:            day,
		To:              day,
		IncludeWeekends: st.allowWeekend,
	}, model.SlotTemplate{st.slotDef})
	if err != nil {
		return err
	}
	if len(grid) == 0 || len(grid[0].Results) == 0 {
		return apperrors.SlotNoLongerAvailable("", st.slotDef.Label)
	}

	result := grid[0].Results[0]
	if !result.Available {
		return apperrors.SlotNoLongerAvailable("", st.slotDef.Label).
			WithDetail("ineligible", result.IneligibleReasons)
	}
	eligible := make(map[string]struct{}, len(result.EligibleCandidateIDs))
	for _, id := range result.EligibleCandidateIDs {
		eligible[id] = struct{}{}
	}
	st.eligible = st.eligible[:0]
	for _, cand := range st.pool {
		if _, ok := eligible[cand.PersonID]; ok {
			st.eligible = append(st.eligible, cand)
		}
	}
	return nil
}

func (c *Coordinator) assign(ctx context.Context, st *bookingState) error {
	merchant := st.merchant
	if st.preference != "" {
		merchant.ExplicitAssignee = st.preference
	}

	res, err := assignment.Resolve(st.eligible, merchant, st.bookingType, st.snapshot.Rules, 0)
	if err != nil {
		return err
	}
	if res.Reason == assignment.ReasonRoundRobin {
		cursor, err := c.deps.Cursors.Next(ctx, st.bookingType)
		if err != nil {
			cursor = uint64(c.opts.Now().UnixNano())
			st.attempt.log.Warn("Round-robin cursor unavailable, using clock-derived cursor", "error", err)
		}
		res, err = assignment.Resolve(st.eligible, merchant, st.bookingType, st.snapshot.Rules, cursor)
		if err != nil {
			return err
		}
	}

	st.assignee = res.Assignee
	st.reason = res.Reason
	st.attempt.log.Info("Assignee selected",
		"person_id", res.Assignee.PersonID,
		"reason", res.Reason,
		"eligible", len(st.eligible),
	)
	return nil
}

// guardSlot claims the assignee's slot for this attempt. A guard backend
// outage degrades to the busy re-check alone.
func (c *Coordinator) guardSlot(ctx context.Context, st *bookingState) error {
	key := model.SlotGuardKey(st.assignee.PersonID, st.slot)
	ok, err := c.deps.Guard.Acquire(ctx, key, st.attempt.ID, c.opts.GuardTTL)
	if err != nil {
		st.attempt.log.Warn("Slot guard unavailable, continuing with busy re-check only", "key", key, "error", err)
		return nil
	}
	if !ok {
		return apperrors.SlotNoLongerAvailable(st.assignee.PersonID, st.slotDef.Label)
	}
	st.guardKey = key
	return nil
}

func (c *Coordinator) recheckBusy(ctx context.Context, st *bookingState) error {
	intervals, err := c.deps.Busy.GetBusyIntervals(ctx, st.assignee, st.slot.Start, st.slot.End)
	if err != nil {
		return err
	}
	if !availability.IsSlotFree(intervals, st.slot) {
		return apperrors.SlotNoLongerAvailable(st.assignee.PersonID, st.slotDef.Label)
	}
	return nil
}

func (c *Coordinator) writeCalendar(ctx context.Context, st *bookingState) error {
	calendarID, err := c.calendarFor(ctx, st.assignee)
	if err != nil {
		return err
	}

	event := calendar.Event{
		Summary:     fmt.Sprintf("%s: %s", st.bookingType, st.merchant.Name),
		Description: fmt.Sprintf("Merchant %s\nAddress: %s\nPhone: %s", st.merchantID, st.merchant.Address, st.merchant.Phone),
		Start:       st.slot.Start,
		End:         st.slot.End,
		Attendees:   []string{st.assignee.Email},
		Properties: map[string]string{
			"merchant_id":  st.merchantID,
			"booking_type": string(st.bookingType),
			"attempt_id":   st.attempt.ID,
		},
	}

	callCtx, cancel := context.WithTimeout(ctx, c.opts.CalendarTimeout)
	defer cancel()
	eventID, err := c.deps.Calendar.CreateEvent(callCtx, calendarID, event)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return sideUnavailable(apperrors.SideCalendar, "Calendar provider", err)
		}
		return apperrors.CalendarWriteFailed(err)
	}

	st.calendarID = calendarID
	st.eventID = eventID
	return st.attempt.advance(model.AttemptCalendarWritten)
}

func (c *Coordinator) writeCRM(ctx context.Context, st *bookingState) error {
	start, end := st.slot.Start, st.slot.End
	fields := model.BookingFields{
		RecordID:   st.fields.RecordID,
		MerchantID: st.merchantID,
		Type:       st.bookingType,
		Date:       st.date,
		SlotLabel:  st.slotDef.Label,
		SlotStart:  &start,
		SlotEnd:    &end,
		Assignee:   st.assignee.PersonID,
		EventID:    st.eventID,
		CalendarID: st.calendarID,
		Status:     st.status,
		UpdatedAt:  c.opts.Now().UTC(),
	}

	crmCtx, cancel := context.WithTimeout(ctx, c.opts.CRMTimeout)
	defer cancel()
	saved, err := c.deps.CRM.WriteBookingFields(crmCtx, st.merchantID, st.bookingType, fields)
	if err != nil {
		c.compensate(ctx, st, st.calendarID, st.eventID, "crm write failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return sideUnavailable(apperrors.SideCRM, "CRM", err)
		}
		return apperrors.CRMWriteFailed(err)
	}
	if err := st.attempt.advance(model.AttemptCrmWritten); err != nil {
		return err
	}

	recordID := saved.RecordID
	if recordID == "" {
		recordID = fields.RecordID
	}
	st.result = &model.Booking{
		MerchantID:       st.merchantID,
		BookingType:      st.bookingType,
		Date:             st.date,
		Slot:             st.slot,
		AssignedPersonID: st.assignee.PersonID,
		CalendarEventID:  st.eventID,
		CRMRecordID:      recordID,
		Status:           st.status,
	}
	return st.attempt.advance(model.AttemptConfirmed)
}

// deletePrevious removes the event the CRM points at before a replacement
// is created. A missing event is a stale reference and counts as removed.
func (c *Coordinator) deletePrevious(ctx context.Context, st *bookingState) error {
	if st.preference == "" {
		st.preference = st.fields.Assignee
	}
	if st.fields.EventID == "" {
		return nil
	}

	calendarID, err := c.previousCalendar(ctx, st)
	if err != nil {
		st.attempt.log.Warn("Cannot locate calendar of previous event, leaving it for reconciliation",
			"event_id", st.fields.EventID,
			"assignee", st.fields.Assignee,
			"error", err,
		)
		return nil
	}

	err = c.deleteEvent(ctx, calendarID, st.fields.EventID)
	switch {
	case err == nil:
		st.previousDeleted = true
		st.attempt.log.Info("Previous event deleted", "event_id", st.fields.EventID)
	case errors.Is(err, calendar.ErrNotFound):
		st.previousDeleted = true
		st.attempt.log.Warn("Previous event already gone, treating as resolved",
			"error", apperrors.StaleReference(st.fields.EventID),
		)
	default:
		st.attempt.log.Warn("Failed to delete previous event, queued for compensation",
			"event_id", st.fields.EventID,
			"error", err,
		)
		c.enqueueDelete(ctx, st, calendarID, st.fields.EventID, "reschedule delete failed")
	}
	return nil
}

func (c *Coordinator) checkCancellable(ctx context.Context, st *bookingState) error {
	neverBooked := st.fields.Status == "" && st.fields.EventID == ""
	alreadyCancelled := st.fields.Status == model.StatusCancelled && st.fields.EventID == ""
	if neverBooked || alreadyCancelled {
		st.noop = true
		st.result = &model.Booking{
			MerchantID:  st.merchantID,
			BookingType: st.bookingType,
			CRMRecordID: st.fields.RecordID,
			Status:      model.StatusCancelled,
		}
	}
	return nil
}

func (c *Coordinator) deleteCurrent(ctx context.Context, st *bookingState) error {
	if st.noop {
		return nil
	}
	if st.fields.EventID != "" {
		calendarID, err := c.previousCalendar(ctx, st)
		if err != nil {
			return err
		}
		err = c.deleteEvent(ctx, calendarID, st.fields.EventID)
		switch {
		case errors.Is(err, calendar.ErrNotFound):
			st.attempt.log.Info("Event already gone", "event_id", st.fields.EventID)
		case err != nil:
			return apperrors.CalendarWriteFailed(err)
		}
	}
	return st.attempt.advance(model.AttemptCalendarWritten)
}

func (c *Coordinator) clearCRM(ctx context.Context, st *bookingState) error {
	if st.noop {
		return nil
	}
	cleared := st.fields.Cleared()
	cleared.UpdatedAt = c.opts.Now().UTC()

	crmCtx, cancel := context.WithTimeout(ctx, c.opts.CRMTimeout)
	defer cancel()
	saved, err := c.deps.CRM.WriteBookingFields(crmCtx, st.merchantID, st.bookingType, cleared)
	if err != nil {
		st.attempt.log.Error("Event deleted but CRM still shows the booking",
			"event_id", st.fields.EventID,
			"error", err,
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return sideUnavailable(apperrors.SideCRM, "CRM", err)
		}
		return apperrors.CRMWriteFailed(err)
	}
	if err := st.attempt.advance(model.AttemptCrmWritten); err != nil {
		return err
	}

	st.result = &model.Booking{
		MerchantID:       st.merchantID,
		BookingType:      st.bookingType,
		Date:             st.fields.Date,
		AssignedPersonID: st.fields.Assignee,
		CalendarEventID:  st.fields.EventID,
		CRMRecordID:      saved.RecordID,
		Status:           model.StatusCancelled,
	}
	return st.attempt.advance(model.AttemptConfirmed)
}

// compensate deletes the event a failed attempt left behind. It outlives
// the request context; whatever the retries cannot delete goes to the outbox.
func (c *Coordinator) compensate(ctx context.Context, st *bookingState, calendarID, eventID, reason string) {
	ctx = context.WithoutCancel(ctx)
	err := c.deleteEvent(ctx, calendarID, eventID)
	if err == nil || errors.Is(err, calendar.ErrNotFound) {
		st.attempt.log.Info("Compensating delete succeeded", "event_id", eventID, "reason", reason)
		return
	}
	st.attempt.log.Error("Compensating delete failed", "event_id", eventID, "reason", reason, "error", err)
	c.enqueueDelete(ctx, st, calendarID, eventID, reason)
}

func (c *Coordinator) enqueueDelete(ctx context.Context, st *bookingState, calendarID, eventID, reason string) {
	if c.deps.Outbox == nil {
		st.attempt.log.Error("Orphaned calendar event needs manual cleanup", "calendar_id", calendarID, "event_id", eventID)
		return
	}
	err := c.deps.Outbox.EnqueueCompensation(context.WithoutCancel(ctx), outbox.CompensateDeletePayload{
		CalendarID:  calendarID,
		EventID:     eventID,
		MerchantID:  st.merchantID,
		BookingType: string(st.bookingType),
		AttemptID:   st.attempt.ID,
		Reason:      reason,
		CreatedAt:   c.opts.Now().UTC(),
	})
	if err != nil {
		st.attempt.log.Error("Orphaned calendar event needs manual cleanup",
			"calendar_id", calendarID,
			"event_id", eventID,
			"error", err,
		)
	}
}

// deleteEvent retries transient failures. calendar.ErrNotFound is returned
// as is on the first occurrence.
func (c *Coordinator) deleteEvent(ctx context.Context, calendarID, eventID string) error {
	return retry.Do(ctx, c.opts.DeleteRetry, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.opts.CalendarTimeout)
		defer cancel()
		err := c.deps.Calendar.DeleteEvent(callCtx, calendarID, eventID)
		if errors.Is(err, calendar.ErrNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
}

func (c *Coordinator) calendarFor(ctx context.Context, person model.Candidate) (string, error) {
	if person.CalendarID != "" {
		return person.CalendarID, nil
	}
	return c.deps.Identity.Resolve(ctx, person.Email)
}

// previousCalendar finds the calendar holding the event the CRM references,
// preferring the id recorded alongside it.
func (c *Coordinator) previousCalendar(ctx context.Context, st *bookingState) (string, error) {
	if st.fields.CalendarID != "" {
		return st.fields.CalendarID, nil
	}
	if st.snapshot == nil {
		snapshot, err := c.deps.Directory.Snapshot(ctx)
		if err != nil {
			return "", err
		}
		st.snapshot = snapshot
	}
	person, ok := st.snapshot.Find(st.fields.Assignee)
	if !ok {
		return "", apperrors.NotFoundWithID("Person", st.fields.Assignee)
	}
	return c.calendarFor(ctx, person)
}

func (c *Coordinator) publish(ctx context.Context, st *bookingState, eventType string, appErr *apperrors.AppError) {
	o := events.Outcome{
		Type:        eventType,
		AttemptID:   st.attempt.ID,
		MerchantID:  st.merchantID,
		BookingType: st.bookingType,
		Booking:     st.result,
		OccurredAt:  c.opts.Now().UTC(),
	}
	if appErr != nil {
		o.ErrorCode = appErr.Code
		o.Side = string(appErr.Side)
	}
	if err := c.deps.Events.Publish(context.WithoutCancel(ctx), o); err != nil {
		st.attempt.log.Warn("Failed to publish booking outcome", "type", eventType, "error", err)
	}
}

func (c *Coordinator) validate(req any) error {
	if err := c.validator.Validate(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.Validation("Booking request validation failed", verrs.Details())
		}
		return apperrors.Validation("Booking request validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func activeOnly(pool []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, 0, len(pool))
	for _, c := range pool {
		if c.Active {
			out = append(out, c)
		}
	}
	return out
}

func classify(err error) *apperrors.AppError {
	if apperrors.IsAppError(err) {
		return apperrors.AsAppError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		timeout := apperrors.Timeout("booking request timed out")
		timeout.Err = err
		return timeout
	}
	return apperrors.Internal("booking failed", err)
}

func crmReadError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return sideUnavailable(apperrors.SideNone, "CRM", err)
}

func sideUnavailable(side apperrors.Side, service string, err error) *apperrors.AppError {
	e := apperrors.Unavailable(service)
	e.Side = side
	e.Err = err
	return e
}
