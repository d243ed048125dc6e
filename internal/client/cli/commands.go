package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/client/services"
	"github.com/dmitrijs2005/absensi/internal/common"
	"github.com/dmitrijs2005/absensi/internal/filex"
	"github.com/dmitrijs2005/absensi/internal/timex"
)

const (
	maxPhotoBytes  = 5 << 20
	maxMasterBytes = 20 << 20
)

var errUsage = errors.New("usage")

func usage(msg string) error {
	return fmt.Errorf("%w: %s", errUsage, msg)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Slot shows or changes the context new records go into. Without
// arguments it prompts for every field.
func (a *App) Slot(ctx context.Context, args []string) error {
	s := a.slot

	if len(args) == 0 {
		var err error
		var v string
		if v, err = GetTextOr(a.reader, "Mode (mapel/kegiatan)", string(s.Mode), a.out); err != nil {
			return err
		}
		if s.Mode, err = models.ParseMode(v); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		if s.Mode == models.ModeSubject {
			if s.Subject, err = GetTextOr(a.reader, "Subject", s.Subject, a.out); err != nil {
				return err
			}
			if v, err = GetTextOr(a.reader, "Hour slot", strconv.Itoa(s.HourSlot), a.out); err != nil {
				return err
			}
			if s.HourSlot, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("%w: hour slot %q", common.ErrorValidation, v)
			}
		} else if s.Activity, err = GetTextOr(a.reader, "Activity", s.Activity, a.out); err != nil {
			return err
		}
		if s.Responsible, err = GetTextOr(a.reader, "Responsible", s.Responsible, a.out); err != nil {
			return err
		}
		if s.Location, err = GetTextOr(a.reader, "Location", s.Location, a.out); err != nil {
			return err
		}
	} else {
		kv, err := parseKV(args)
		if err != nil {
			return usage("slot [mode=mapel|kegiatan] [subject=..] [activity=..] [hour=N] [by=..] [location=..] [date=YYYY-MM-DD]")
		}
		for k, v := range kv {
			switch k {
			case "mode":
				if s.Mode, err = models.ParseMode(v); err != nil {
					return fmt.Errorf("%w: %v", common.ErrorValidation, err)
				}
			case "subject", "mapel":
				s.Subject = v
			case "activity", "kegiatan":
				s.Activity = v
			case "hour", "jamke":
				if s.HourSlot, err = strconv.Atoi(v); err != nil {
					return fmt.Errorf("%w: hour slot %q", common.ErrorValidation, v)
				}
			case "by", "responsible":
				s.Responsible = v
			case "location":
				s.Location = v
			case "date":
				if v != "" && !timex.ValidDate(v) {
					return fmt.Errorf("%w: date %q", common.ErrorValidation, v)
				}
				s.Date = v
			default:
				return usage(fmt.Sprintf("unknown slot field %q", k))
			}
		}
	}

	a.slot = s
	a.printSlot()
	return nil
}

func (a *App) printSlot() {
	s := a.slot
	date := s.Date
	if date == "" {
		date = "today"
	}
	target := s.Subject
	if s.Mode == models.ModeActivity {
		target = s.Activity
	}
	a.printf("Slot: %s %s %q hour %d, by %q", date, s.Mode, target, s.HourSlot, s.Responsible)
	if s.Location != "" {
		a.printf(" at %q", s.Location)
	}
	a.printf("\n")
}

func (a *App) slotRecord(studentID string, status models.Status) models.Attendance {
	s := a.slot
	return models.Attendance{
		Date:        s.Date,
		Mode:        s.Mode,
		HourSlot:    s.HourSlot,
		Subject:     s.Subject,
		Activity:    s.Activity,
		Responsible: s.Responsible,
		Location:    s.Location,
		StudentID:   studentID,
		Status:      status,
	}
}

func (a *App) printRecorded(rec models.Attendance, created bool) {
	verb := "Recorded"
	if !created {
		verb = "Updated"
	}
	a.printf("%s #%d %s %s: %s\n", verb, rec.ID, rec.StudentID, rec.StudentName, rec.Status)
}

// Record stores one attendance in the current slot:
// record <studentId> <status> [reason...]
func (a *App) Record(ctx context.Context, args []string) error {
	var err error
	if len(args) == 0 {
		var id string
		if id, err = GetSimpleText(a.reader, "Student id", a.out); err != nil {
			return err
		}
		args = append(args, id)
	}
	if len(args) == 1 {
		var st string
		if st, err = GetTextOr(a.reader, "Status (Hadir/Terlambat/Izin/Sakit/Alpa)", string(models.StatusPresent), a.out); err != nil {
			return err
		}
		args = append(args, st)
	}

	status, err := models.ParseStatus(args[1])
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	rec := a.slotRecord(args[0], status)
	rec.Reason = strings.Join(args[2:], " ")

	rec, created, err := a.services().Attendance.Record(ctx, rec)
	if err != nil {
		return err
	}
	a.printRecorded(rec, created)
	a.refreshPending(ctx)
	return nil
}

// Scan records a "STUDENTID|NAME" QR payload as present.
func (a *App) Scan(ctx context.Context, args []string) error {
	payload := strings.Join(args, " ")
	if payload == "" {
		var err error
		if payload, err = GetSimpleText(a.reader, "Scan payload (STUDENTID|NAME)", a.out); err != nil {
			return err
		}
	}

	rec, created, err := a.services().Attendance.RecordQR(ctx, payload, a.slot)
	if err != nil {
		return err
	}
	a.printRecorded(rec, created)
	a.refreshPending(ctx)
	return nil
}

// List prints the records of a date:
// list [YYYY-MM-DD] [status=..] [mode=..] [pending|synced] [q=..]
func (a *App) List(ctx context.Context, args []string) error {
	var date string
	var f services.Filter

	for _, arg := range args {
		switch {
		case timex.ValidDate(arg):
			date = arg
		case arg == "pending" || arg == "synced":
			synced := arg == "synced"
			f.Synced = &synced
		default:
			k, v, ok := strings.Cut(arg, "=")
			if !ok {
				return usage("list [YYYY-MM-DD] [status=..] [mode=..] [pending|synced] [q=..]")
			}
			var err error
			switch strings.ToLower(k) {
			case "status":
				if f.Status, err = models.ParseStatus(v); err != nil {
					return fmt.Errorf("%w: %v", common.ErrorValidation, err)
				}
			case "mode":
				if f.Mode, err = models.ParseMode(v); err != nil {
					return fmt.Errorf("%w: %v", common.ErrorValidation, err)
				}
			case "q":
				f.Query = strings.ReplaceAll(v, "_", " ")
			default:
				return usage(fmt.Sprintf("unknown filter %q", k))
			}
		}
	}

	rows, err := a.services().Attendance.List(ctx, date, f)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		a.printf("No records.\n")
		return nil
	}

	settings, err := a.services().Settings.Get(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tSTUDENT\tNAME\tMODE\tHOUR\tSUBJECT/ACTIVITY\tSTATUS\tBY\tSYNC")
	for _, r := range rows {
		mark := "pending"
		if r.Synced {
			mark = "ok"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, timex.FormatClock(r.Time, settings.TimeFormat), r.StudentID, r.StudentName,
			r.Mode, r.HourSlot, r.Target(), r.Status, r.Responsible, mark)
	}
	return tw.Flush()
}

func parseID(args []string, use string) (int64, error) {
	if len(args) == 0 {
		return 0, usage(use)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, usage(use)
	}
	return id, nil
}

// Edit changes fields of one record: edit <id> key=value...
func (a *App) Edit(ctx context.Context, args []string) error {
	const use = "edit <id> [status=..] [time=HH:MM:SS] [by=..] [reason=..] [location=..] [name=..]"
	id, err := parseID(args, use)
	if err != nil {
		return err
	}
	kv, err := parseKV(args[1:])
	if err != nil || len(kv) == 0 {
		return usage(use)
	}

	var p models.Patch
	for k, v := range kv {
		v := v // per-iteration copy: the go directive predates 1.22 loop semantics
		switch k {
		case "status":
			st := models.Status(v)
			p.Status = &st
		case "time", "waktu":
			p.Time = &v
		case "by", "responsible":
			p.Responsible = &v
		case "reason", "alasan":
			p.Reason = &v
		case "location", "lokasi":
			p.Location = &v
		case "name", "nama":
			p.StudentName = &v
		default:
			return usage(use)
		}
	}

	if err := a.services().Attendance.Edit(ctx, id, p); err != nil {
		return err
	}
	a.printf("Updated #%d\n", id)
	a.refreshPending(ctx)
	return nil
}

// Photo attaches an image file to a record: photo <id> <file>
func (a *App) Photo(ctx context.Context, args []string) error {
	const use = "photo <id> <file>"
	id, err := parseID(args, use)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return usage(use)
	}

	data, err := filex.ReadLimited(args[1], maxPhotoBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if err := a.services().Attendance.Edit(ctx, id, models.Patch{Photo: data}); err != nil {
		return err
	}
	a.printf("Photo attached to #%d (%d bytes)\n", id, len(data))
	a.refreshPending(ctx)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := parseID(args, "delete <id>")
	if err != nil {
		return err
	}
	if err := a.services().Attendance.Delete(ctx, id); err != nil {
		return err
	}
	a.printf("Deleted #%d\n", id)
	a.refreshPending(ctx)
	return nil
}

func (a *App) printPush(res services.PushResult) {
	if res.Sent == 0 {
		a.printf("Nothing to push.\n")
		return
	}
	a.printf("Pushed %d, acknowledged %d", res.Sent, res.Acknowledged)
	if res.Optimistic {
		a.printf(" (endpoint did not list saved ids)")
	}
	a.printf("\n")
}

func (a *App) printPull(res services.PullResult) {
	a.printf("%s: %d added, %d updated, %d kept", res.Date, res.Added, res.Updated, res.Kept)
	if res.Skipped > 0 {
		a.printf(", %d skipped", res.Skipped)
	}
	a.printf("\n")
}

func (a *App) Push(ctx context.Context, _ []string) error {
	res, err := a.services().Sync.Push(ctx)
	if err != nil {
		return err
	}
	a.printPush(res)
	return nil
}

// Pull fetches one date, today by default: pull [YYYY-MM-DD]
func (a *App) Pull(ctx context.Context, args []string) error {
	date := a.today(ctx)
	if len(args) > 0 {
		date = args[0]
	}
	res, err := a.services().Sync.PullAttendance(ctx, date)
	if err != nil {
		return err
	}
	a.printPull(res)
	return nil
}

// Sync pushes pending rows and then pulls today.
func (a *App) Sync(ctx context.Context, _ []string) error {
	if err := a.Push(ctx, nil); err != nil {
		return err
	}
	return a.Pull(ctx, nil)
}

// SyncAll pushes once and pulls every day of a range: syncall <start> <end>
func (a *App) SyncAll(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("syncall <start YYYY-MM-DD> <end YYYY-MM-DD>")
	}
	res, err := a.services().Sync.PullRange(ctx, args[0], args[1])
	if res.PushErr != nil {
		a.printf("Push failed: %s\n", explain(res.PushErr))
	} else {
		a.printPush(res.Push)
	}
	for _, d := range res.Days {
		a.printPull(d)
	}
	if len(res.Days) > 0 {
		added, updated := res.Totals()
		a.printf("Total: %d added, %d updated over %d days\n", added, updated, len(res.Days))
	}
	if len(res.Failed) > 0 {
		a.printf("Failed days: %s\n", strings.Join(res.Failed, ", "))
	}
	return err
}

// Masters handles the master tables: masters merge|pull|list|import <file>
func (a *App) Masters(ctx context.Context, args []string) error {
	const use = "masters merge|pull|list|import <file>|delete <siswa|guru|mapel> <id>"
	if len(args) == 0 {
		return usage(use)
	}
	svc := a.services().Masters

	switch args[0] {
	case "merge":
		res, err := svc.MergeMasters(ctx)
		if err != nil {
			return err
		}
		a.printf("siswa: %d pulled, %d pushed\nguru: %d pulled, %d pushed\nmapel: %d pulled, %d pushed\n",
			res.Students.Pulled, res.Students.Pushed, res.Teachers.Pulled, res.Teachers.Pushed,
			res.Subjects.Pulled, res.Subjects.Pushed)
		if res.Skipped > 0 {
			a.printf("%d rows skipped\n", res.Skipped)
		}

	case "pull", "import":
		var res services.PullMastersResult
		var err error
		if args[0] == "pull" {
			res, err = svc.PullMasters(ctx)
		} else {
			if len(args) < 2 {
				return usage(use)
			}
			res, err = a.importMasters(ctx, args[1])
		}
		if err != nil {
			return err
		}
		a.printf("Stored %d siswa, %d guru, %d mapel", res.Students, res.Teachers, res.Subjects)
		if res.Skipped > 0 {
			a.printf(" (%d skipped)", res.Skipped)
		}
		a.printf("\n")

	case "list":
		set, err := svc.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tID\tNAME\tCLASS\tUPDATED")
		for _, s := range set.Students {
			fmt.Fprintf(tw, "siswa\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Class, s.UpdatedAt)
		}
		for _, g := range set.Teachers {
			fmt.Fprintf(tw, "guru\t%s\t%s\t\t%s\n", g.ID, g.Name, g.UpdatedAt)
		}
		for _, m := range set.Subjects {
			fmt.Fprintf(tw, "mapel\t%s\t%s\t\t%s\n", m.ID, m.Name, m.UpdatedAt)
		}
		return tw.Flush()

	case "delete":
		if len(args) != 3 {
			return usage(use)
		}
		if err := svc.Delete(ctx, models.MasterKind(args[1]), args[2]); err != nil {
			return err
		}
		// Deletes stay on this device; the next pull brings the row back if
		// the endpoint still has it.
		a.printf("Deleted %s %s locally.\n", args[1], args[2])

	default:
		return usage(use)
	}
	return nil
}

// Template saves the current slot under a name, or applies, lists and
// deletes saved ones. Names may contain spaces.
func (a *App) Template(ctx context.Context, args []string) error {
	const use = "template save <name>|use <name>|list|delete <name>"
	if len(args) == 0 {
		return usage(use)
	}
	svc := a.services().Templates
	name := strings.Join(args[1:], " ")

	switch args[0] {
	case "save":
		if name == "" {
			return usage(use)
		}
		t, err := svc.Save(ctx, name, a.slot)
		if err != nil {
			return err
		}
		a.printf("Template %q saved.\n", t.Name)

	case "use", "apply":
		if name == "" {
			return usage(use)
		}
		s, err := svc.Apply(ctx, name, a.slot)
		if err != nil {
			return err
		}
		a.slot = s
		a.printSlot()

	case "list":
		list, err := svc.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			a.printf("No templates.\n")
			return nil
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tMODE\tTARGET\tHOUR\tBY\tLOCATION")
		for _, t := range list {
			target := t.Subject
			if t.Mode == models.ModeActivity {
				target = t.Activity
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", t.Name, t.Mode, target, t.HourSlot, t.Responsible, t.Location)
		}
		return tw.Flush()

	case "delete":
		if name == "" {
			return usage(use)
		}
		if err := svc.Delete(ctx, name); err != nil {
			return err
		}
		a.printf("Template %q deleted.\n", name)

	default:
		return usage(use)
	}
	return nil
}

func (a *App) importMasters(ctx context.Context, path string) (services.PullMastersResult, error) {
	if _, err := filex.ReadLimited(path, maxMasterBytes); err != nil {
		return services.PullMastersResult{}, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return services.PullMastersResult{}, err
	}
	defer f.Close()
	return a.services().Masters.Import(ctx, f)
}

// Export sends a report range: export [start] [end]. Empty bounds are open.
func (a *App) Export(ctx context.Context, args []string) error {
	var start, end string
	if len(args) > 0 {
		start = args[0]
	}
	if len(args) > 1 {
		end = args[1]
	}
	res, err := a.services().Reports.Export(ctx, start, end)
	if err != nil {
		return err
	}
	a.printf("Exported %d rows\n", res.Count)
	return nil
}

func (a *App) Archive(ctx context.Context, _ []string) error {
	res, err := a.services().Photos.Archive(ctx)
	if err != nil {
		return err
	}
	a.printf("Photos uploaded: %d, failed: %d\n", res.Uploaded, res.Failed)
	return nil
}

func (a *App) PingCmd(ctx context.Context, _ []string) error {
	if err := a.Ping(ctx); err != nil {
		return err
	}
	a.printf("Endpoint reachable\n")
	return nil
}
