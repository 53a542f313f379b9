// Package form holds the report form session: field rules, alarm presets,
// edit mode and the fan-out of one submission into queued reports.
package form

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"afc-report-backend/internal/logger"
	"afc-report-backend/internal/model"
	"afc-report-backend/internal/parse"
	"afc-report-backend/internal/sheet"
)

var (
	ErrFieldLocked    = errors.New("field is locked")
	ErrUnknownField   = errors.New("unknown field")
	ErrInvalidValue   = errors.New("invalid value")
	ErrOptionDisabled = errors.New("option is disabled for this device")
	ErrMissingTag     = errors.New("missing tag")
	ErrNoTags         = errors.New("no tags in multiple entry")
)

// Alert returns the message shown to the user for a form error.
func Alert(err error) string {
	switch {
	case errors.Is(err, ErrMissingTag):
		return "Please provide a Tag."
	case errors.Is(err, ErrNoTags):
		return "Please enter at least one tag."
	default:
		return err.Error()
	}
}

const unknownEditor = "Unknown Engineer"

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Draft is the report being filled in.
type Draft struct {
	ReportBy      string       `json:"reportBy"`
	ReportedDate  string       `json:"reportedDate"`
	Station       string       `json:"station"`
	Device        model.Device `json:"device"`
	Tag           string       `json:"tag"`
	Status        string       `json:"status"`
	AlarmCode     string       `json:"alarmCode"`
	Malfunction   string       `json:"malfunction"`
	Impact        string       `json:"impact"`
	RepairProcess string       `json:"repairProcess"`
	AssignedTo    string       `json:"assignedTo"`
	FinalResult   []string     `json:"finalResult"`
	Comments      string       `json:"comments"`
}

// State is a snapshot of the form session.
type State struct {
	Mode      Mode   `json:"mode"`
	Draft     Draft  `json:"draft"`
	AutoTime  bool   `json:"autoTime"`
	MultiTag  bool   `json:"multiTag"`
	MultiTags string `json:"multiTags"`
}

// SubmitResult is what a submission queued.
type SubmitResult struct {
	Reports []model.Report `json:"reports"`
	Message string         `json:"message"`
	State   State          `json:"state"`
}

// PreferenceStore persists the remembered reporter and station.
type PreferenceStore interface {
	Preference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error
}

// Appender queues reports locally. AppendAll stores all of rs or none of them.
type Appender interface {
	AppendAll(ctx context.Context, rs []model.Report) ([]model.Report, error)
}

// Triggerer is asked for an immediate sync after every submission.
type Triggerer interface {
	Trigger()
}

// Options tune a form session. Zero values fall back to sensible defaults.
type Options struct {
	DefaultReporter string
	DefaultStation  string
	Location        *time.Location
	Clock           func() time.Time
}

// Form is the single report form session of the daemon.
type Form struct {
	mu sync.Mutex

	prefs   PreferenceStore
	reports Appender
	syncer  Triggerer

	defaultReporter string
	defaultStation  string
	loc             *time.Location
	now             func() time.Time

	state State
	log   *logrus.Entry
}

// New starts a form session in Create mode, restoring the remembered
// reporter and station.
func New(ctx context.Context, prefs PreferenceStore, reports Appender, syncer Triggerer, opts Options) *Form {
	f := &Form{
		prefs:           prefs,
		reports:         reports,
		syncer:          syncer,
		defaultReporter: opts.DefaultReporter,
		defaultStation:  opts.DefaultStation,
		loc:             opts.Location,
		now:             opts.Clock,
		log:             logger.For("form"),
	}
	if f.defaultReporter == "" {
		f.defaultReporter = Reporters[0]
	}
	if f.defaultStation == "" {
		f.defaultStation = model.Stations[0]
	}
	if f.loc == nil {
		f.loc = time.Local
	}
	if f.now == nil {
		f.now = time.Now
	}

	f.state = State{
		Mode:     ModeCreate,
		AutoTime: true,
		Draft: Draft{
			ReportBy:    f.defaultReporter,
			Station:     f.defaultStation,
			Device:      model.DeviceATIM,
			Status:      model.StatusSolved,
			AssignedTo:  model.AssigneeTraxis,
			FinalResult: []string{model.ResultOK},
		},
	}
	f.restorePreferences(ctx)
	return f
}

// Location is the time zone dates are entered and displayed in.
func (f *Form) Location() *time.Location {
	return f.loc
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

// Catalog returns the choice lists for the current device.
func (f *Form) Catalog() Catalog {
	f.mu.Lock()
	device := f.state.Draft.Device
	f.mu.Unlock()
	return CatalogFor(device)
}

// SetField changes one field by its report name.
func (f *Form) SetField(ctx context.Context, name, value string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	editing := f.state.Mode == ModeEdit
	d := &f.state.Draft

	switch name {
	case "reportBy":
		if editing {
			return f.snapshot(), fmt.Errorf("%w: %s", ErrFieldLocked, name)
		}
		d.ReportBy = value
		f.remember(ctx, model.PrefLastReporter, value)
	case "reportedDate":
		if editing || f.state.AutoTime {
			return f.snapshot(), fmt.Errorf("%w: %s", ErrFieldLocked, name)
		}
		if value != "" {
			if _, err := time.ParseInLocation(parse.LocalInputLayout, value, f.loc); err != nil {
				return f.snapshot(), fmt.Errorf("%w: %s %q", ErrInvalidValue, name, value)
			}
		}
		d.ReportedDate = value
	case "station":
		if !slices.Contains(model.Stations, value) {
			return f.snapshot(), fmt.Errorf("%w: %s %q", ErrInvalidValue, name, value)
		}
		d.Station = value
		if !editing {
			f.remember(ctx, model.PrefLastStation, value)
		}
	case "device":
		device := model.Device(value)
		if !slices.Contains(model.Devices, device) {
			return f.snapshot(), fmt.Errorf("%w: %s %q", ErrInvalidValue, name, value)
		}
		d.Device = device
		if device != model.DeviceGATE {
			d.Impact = ""
		}
		if device != model.DeviceATIM {
			d.AlarmCode = ""
		}
	case "tag":
		d.Tag = value
	case "status":
		if !slices.Contains(model.Statuses, value) {
			return f.snapshot(), fmt.Errorf("%w: %s %q", ErrInvalidValue, name, value)
		}
		d.Status = value
	case "alarmCode":
		if d.Device != model.DeviceATIM {
			return f.snapshot(), fmt.Errorf("%w: %s", ErrFieldLocked, name)
		}
		d.AlarmCode = value
		if rule, ok := LookupAlarm(value); ok {
			d.Malfunction = rule.Malfunction
			d.RepairProcess = rule.RepairProcess
			d.AssignedTo = rule.AssignedTo
			d.Status = rule.Status
			d.FinalResult = rule.FinalResult
		}
	case "malfunction":
		d.Malfunction = value
	case "impact":
		if d.Device != model.DeviceGATE {
			return f.snapshot(), fmt.Errorf("%w: %s", ErrFieldLocked, name)
		}
		d.Impact = value
	case "repairProcess":
		d.RepairProcess = value
	case "assignedTo":
		if !slices.Contains(model.Assignees, value) {
			return f.snapshot(), fmt.Errorf("%w: %s %q", ErrInvalidValue, name, value)
		}
		d.AssignedTo = value
	case "comments":
		d.Comments = value
	default:
		return f.snapshot(), fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	return f.snapshot(), nil
}

// ToggleFinalResult adds or removes one final result option. OK and
// Out of Service never stay selected together.
func (f *Form) ToggleFinalResult(option string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := &f.state.Draft
	if !slices.Contains(model.FinalResults, option) {
		return f.snapshot(), fmt.Errorf("%w: finalResult %q", ErrInvalidValue, option)
	}
	if optionDisabled(d.Device, option) {
		return f.snapshot(), fmt.Errorf("%w: %s", ErrOptionDisabled, option)
	}

	if slices.Contains(d.FinalResult, option) {
		d.FinalResult = without(d.FinalResult, option)
		return f.snapshot(), nil
	}

	current := append(slices.Clone(d.FinalResult), option)
	switch option {
	case model.ResultOK:
		current = without(current, model.ResultOutOfService)
	case model.ResultOutOfService:
		current = without(current, model.ResultOK)
	}
	d.FinalResult = current
	return f.snapshot(), nil
}

// SetAutoTime switches between the live clock and a manual report date.
func (f *Form) SetAutoTime(on bool) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Mode == ModeEdit {
		return f.snapshot(), fmt.Errorf("%w: autoTime", ErrFieldLocked)
	}
	f.state.AutoTime = on
	// The manual input starts from the clock's last value.
	f.state.Draft.ReportedDate = f.localNow()
	return f.snapshot(), nil
}

// SetMultiTag switches multiple entry on or off. With it on, tags is the comma
// separated list that replaces the single tag.
func (f *Form) SetMultiTag(on bool, tags string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Mode == ModeEdit {
		return f.snapshot(), fmt.Errorf("%w: multiTag", ErrFieldLocked)
	}
	f.state.MultiTag = on
	if on {
		f.state.MultiTags = tags
		f.state.Draft.Tag = ""
	} else {
		f.state.MultiTags = ""
	}
	return f.snapshot(), nil
}

// BeginEdit loads a previously submitted row for correction.
func (f *Form) BeginEdit(row sheet.Row) State {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := sheet.Normalize(row)
	f.state = State{
		Mode: ModeEdit,
		Draft: Draft{
			ReportBy:      r.ReportBy,
			ReportedDate:  f.editDate(r.ReportedDate),
			Station:       r.Station,
			Device:        model.Device(or(string(r.Device), string(model.DeviceATIM))),
			Tag:           r.Tag,
			Status:        or(r.Status, model.StatusSolved),
			AlarmCode:     r.AlarmCode,
			Malfunction:   r.Malfunction,
			Impact:        r.Impact,
			RepairProcess: r.RepairProcess,
			AssignedTo:    or(r.AssignedTo, model.AssigneeTraxis),
			FinalResult:   strings.Split(or(r.FinalResult, model.ResultOK), model.FinalResultSeparator),
			Comments:      r.Comments,
		},
	}
	f.log.WithField("tag", r.Tag).Info("editing report")
	return f.snapshot()
}

// CancelEdit leaves Edit mode without submitting.
func (f *Form) CancelEdit(ctx context.Context) State {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Mode != ModeEdit {
		return f.snapshot()
	}
	d := &f.state.Draft
	d.Tag = ""
	d.AlarmCode = ""
	d.Malfunction = ""
	d.Comments = ""
	d.RepairProcess = ""
	d.FinalResult = []string{model.ResultOK}
	f.state.Mode = ModeCreate
	f.state.AutoTime = true
	f.restorePreferences(ctx)
	return f.snapshot()
}

// Submit queues one report per tag, asks for a sync and resets the form.
// The tags are queued together: on failure nothing is stored and the form
// keeps its input for a retry.
func (f *Form) Submit(ctx context.Context) (SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := f.state.Draft
	editing := f.state.Mode == ModeEdit

	var tags []string
	if f.state.MultiTag {
		tags = parse.Tags(f.state.MultiTags)
		if len(tags) == 0 {
			return SubmitResult{State: f.snapshot()}, ErrNoTags
		}
	} else {
		tag := strings.TrimSpace(d.Tag)
		if tag == "" {
			return SubmitResult{State: f.snapshot()}, ErrMissingTag
		}
		tags = []string{tag}
	}

	when := f.now()
	if !f.state.AutoTime && d.ReportedDate != "" {
		t, err := time.ParseInLocation(parse.LocalInputLayout, d.ReportedDate, f.loc)
		if err != nil {
			return SubmitResult{State: f.snapshot()}, fmt.Errorf("%w: reportedDate %q", ErrInvalidValue, d.ReportedDate)
		}
		when = t
	}
	reportedDate := FormatDisplay(when.In(f.loc))

	comments := d.Comments
	if editing {
		comments += " - Edited by " + f.editor(ctx)
	}

	drafts := make([]model.Report, 0, len(tags))
	for _, tag := range tags {
		drafts = append(drafts, model.Report{
			ReportBy:      d.ReportBy,
			ReportedDate:  reportedDate,
			Station:       d.Station,
			Device:        d.Device,
			Tag:           tag,
			Status:        d.Status,
			AlarmCode:     d.AlarmCode,
			Malfunction:   d.Malfunction,
			Impact:        d.Impact,
			RepairProcess: d.RepairProcess,
			AssignedTo:    d.AssignedTo,
			FinalResult:   strings.Join(d.FinalResult, model.FinalResultSeparator),
			Comments:      comments,
		})
	}
	saved, err := f.reports.AppendAll(ctx, drafts)
	if err != nil {
		return SubmitResult{State: f.snapshot()}, fmt.Errorf("failed to queue %d report(s): %w", len(drafts), err)
	}
	f.syncer.Trigger()

	f.log.WithFields(logrus.Fields{"count": len(saved), "edit": editing}).Info("reports saved to queue")

	var msg string
	switch {
	case editing:
		msg = "Report Correction Submitted! 📝 (Pending Sync)"
	case len(saved) > 1:
		msg = fmt.Sprintf("%d Reports Saved to Queue! 📨", len(saved))
	default:
		msg = "Report Saved to Queue! 📨"
	}

	f.reset(ctx, editing)
	return SubmitResult{Reports: saved, Message: msg, State: f.snapshot()}, nil
}

// reset clears what belongs to one report and keeps reporter, station and
// device for the next one.
func (f *Form) reset(ctx context.Context, wasEditing bool) {
	d := &f.state.Draft
	d.Tag = ""
	d.AlarmCode = ""
	d.Comments = ""
	d.Malfunction = ""
	d.RepairProcess = ""
	d.FinalResult = []string{model.ResultOK}
	d.ReportedDate = ""
	f.state.MultiTags = ""
	f.state.Mode = ModeCreate
	f.state.AutoTime = true
	if wasEditing {
		f.restorePreferences(ctx)
	}
}

func (f *Form) snapshot() State {
	s := f.state
	s.Draft.FinalResult = slices.Clone(f.state.Draft.FinalResult)
	if s.AutoTime && s.Mode == ModeCreate {
		s.Draft.ReportedDate = f.localNow()
	}
	return s
}

func (f *Form) localNow() string {
	return f.now().In(f.loc).Format(parse.LocalInputLayout)
}

// editDate converts a stored date into the manual input layout, or "" when
// it cannot be read.
func (f *Form) editDate(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := parse.ReportDate(raw, f.loc)
	if err != nil {
		f.log.WithError(err).Warn("could not read date of edited report")
		return ""
	}
	return t.In(f.loc).Format(parse.LocalInputLayout)
}

func (f *Form) editor(ctx context.Context) string {
	name, err := f.prefs.Preference(ctx, model.PrefLastReporter)
	if err != nil {
		f.log.WithError(err).Warn("failed to read last reporter")
	}
	return or(name, unknownEditor)
}

func (f *Form) restorePreferences(ctx context.Context) {
	if reporter, err := f.prefs.Preference(ctx, model.PrefLastReporter); err != nil {
		f.log.WithError(err).Warn("failed to read last reporter")
	} else if reporter != "" {
		f.state.Draft.ReportBy = reporter
	}
	if station, err := f.prefs.Preference(ctx, model.PrefLastStation); err != nil {
		f.log.WithError(err).Warn("failed to read last station")
	} else if station != "" {
		f.state.Draft.Station = station
	}
}

func (f *Form) remember(ctx context.Context, key, value string) {
	if err := f.prefs.SetPreference(ctx, key, value); err != nil {
		f.log.WithError(err).WithField("key", key).Warn("failed to save preference")
	}
}

func without(values []string, drop string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}

func or(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
