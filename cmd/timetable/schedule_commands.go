package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"timetable/internal/result"
	"timetable/internal/schedule"
)

var dayLabels = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func newScheduleCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newFacultiesCommand(ctx),
		newGroupsCommand(ctx),
		newDayCommand(ctx),
		newExamsCommand(ctx, "exams", "Show the exam session of a group", backend.Exams),
		newExamsCommand(ctx, "tests", "Show the pass/fail tests of a group", backend.Tests),
		newBellsCommand(ctx),
		newDepartmentsCommand(ctx),
	}
}

func newFacultiesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "faculties",
		Short: "List faculties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, func(c context.Context, b backend) error {
				env, err := b.Faculties(c)
				if err != nil {
					return err
				}
				return printEnvelope(cmd, ctx, env, func(faculties []schedule.Faculty) string {
					rows := make([][]string, 0, len(faculties))
					for _, f := range faculties {
						rows = append(rows, []string{f.Code, f.Name, f.Description})
					}
					return renderTable([]string{"Code", "Name", "Description"}, rows, nil)
				})
			})
		},
	}
}

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	var form string
	var course int

	cmd := &cobra.Command{
		Use:   "groups <faculty>",
		Short: "List the groups of a faculty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if course < 0 || course > schedule.MaxCourse {
				return fmt.Errorf("course must be between 1 and %d", schedule.MaxCourse)
			}
			var formFilter schedule.EducationForm
			if strings.TrimSpace(form) != "" {
				formFilter = schedule.ParseEducationForm(form)
			}
			return ctx.withBackend(cmd, func(c context.Context, b backend) error {
				env, err := b.Groups(c, strings.TrimSpace(args[0]), formFilter, course)
				if err != nil {
					return err
				}
				return printEnvelope(cmd, ctx, env, func(groups []schedule.Group) string {
					rows := make([][]string, 0, len(groups))
					for _, g := range groups {
						rows = append(rows, []string{g.Code, g.Name, courseLabel(g.Course), string(g.Form), g.DepartmentName})
					}
					return renderTable([]string{"Code", "Name", "Course", "Form", "Department"}, rows,
						[]columnAlignment{alignLeft, alignLeft, alignRight})
				})
			})
		},
	}
	cmd.Flags().StringVar(&form, "form", "", "Education form (full_time or part_time)")
	cmd.Flags().IntVar(&course, "course", 0, "Course number (0 for all)")
	return cmd
}

func newDayCommand(ctx *commandContext) *cobra.Command {
	var dayFlag string
	var parityFlag string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "day <group>",
		Short: "Show the lessons of a group for one day or the whole week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			day, err := resolveDay(dayFlag, time.Now().In(cfg.Location()))
			if err != nil {
				return err
			}
			parity := schedule.ParseParityFilter(parityFlag)
			return ctx.withBackend(cmd, func(c context.Context, b backend) error {
				env, err := b.DaySchedule(c, strings.TrimSpace(args[0]), day, parity, refresh)
				if err != nil {
					return err
				}
				return printEnvelope(cmd, ctx, env, func(lessons []schedule.Lesson) string {
					return renderLessons(lessons, day == 0)
				})
			})
		},
	}
	cmd.Flags().StringVar(&dayFlag, "day", "today", "Day number (1-6), weekday name, today, or week")
	cmd.Flags().StringVar(&parityFlag, "parity", "", "Week parity: odd, even, or all")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch the group's schedule from upstream first")
	return cmd
}

func newExamsCommand(ctx *commandContext, use, short string, read func(backend, context.Context, string) (result.Envelope[[]schedule.Exam], error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <group>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, func(c context.Context, b backend) error {
				env, err := read(b, c, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				return printEnvelope(cmd, ctx, env, renderExams)
			})
		},
	}
}

func newBellsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bells",
		Short: "Show the bell schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, func(c context.Context, b backend) error {
				env, err := b.BellSchedule(c)
				if err != nil {
					return err
				}
				return printEnvelope(cmd, ctx, env, func(slots []schedule.BellSlot) string {
					rows := make([][]string, 0, len(slots))
					for _, s := range slots {
						rows = append(rows, []string{strconv.Itoa(s.Pair), s.Start, s.End})
					}
					return renderTable([]string{"Pair", "Start", "End"}, rows, []columnAlignment{alignRight})
				})
			})
		},
	}
}

func newDepartmentsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "departments",
		Short: "List teaching departments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withBackend(cmd, func(c context.Context, b backend) error {
				env, err := b.Departments(c)
				if err != nil {
					return err
				}
				return printEnvelope(cmd, ctx, env, func(departments []schedule.Department) string {
					rows := make([][]string, 0, len(departments))
					for _, d := range departments {
						rows = append(rows, []string{d.ID, d.Name, d.FacultyCode})
					}
					return renderTable([]string{"ID", "Name", "Faculty"}, rows, nil)
				})
			})
		},
	}
}

// printEnvelope renders env as JSON or with render. Error envelopes also
// fail the command.
func printEnvelope[T any](cmd *cobra.Command, ctx *commandContext, env result.Envelope[T], render func(T) string) error {
	if ctx.jsonOutput() {
		if err := writeJSON(cmd, env); err != nil {
			return err
		}
		return env.Err()
	}
	out := cmd.OutOrStdout()
	switch env.State {
	case result.StateError:
		return env.Err()
	case result.StateLoading:
		fmt.Fprintln(out, "Fetching from upstream; try again shortly")
		return nil
	}
	rendered := render(env.Value)
	if rendered == "" {
		fmt.Fprintln(out, "Nothing to show")
		return nil
	}
	fmt.Fprintln(out, rendered)
	return nil
}

func renderLessons(lessons []schedule.Lesson, withDay bool) string {
	if len(lessons) == 0 {
		return "No lessons"
	}
	headers := []string{"Pair", "Time", "Subject", "Type", "Teacher", "Room", "Week"}
	aligns := []columnAlignment{alignRight}
	if withDay {
		headers = append([]string{"Day"}, headers...)
		aligns = []columnAlignment{alignLeft, alignRight}
	}
	rows := make([][]string, 0, len(lessons))
	for _, l := range lessons {
		row := []string{strconv.Itoa(l.Pair), l.Time, l.Subject, string(l.Type), l.Teacher, l.Classroom, string(l.Parity)}
		if withDay {
			row = append([]string{dayLabel(l.Day)}, row...)
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}

func renderExams(exams []schedule.Exam) string {
	if len(exams) == 0 {
		return "Nothing scheduled"
	}
	rows := make([][]string, 0, len(exams))
	for _, e := range exams {
		rows = append(rows, []string{e.Date, e.Time, e.Subject, e.Teacher, e.Classroom})
	}
	return renderTable([]string{"Date", "Time", "Subject", "Teacher", "Room"}, rows, nil)
}

// resolveDay turns the --day flag into a day number. 0 selects the whole
// week, which is also what "today" means on a Sunday.
func resolveDay(value string, now time.Time) (int, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "week", "all":
		return 0, nil
	case "today":
		if now.Weekday() == time.Sunday {
			return 0, nil
		}
		return int(now.Weekday()), nil
	}
	day := schedule.ParseDay(value)
	if day == 0 {
		return 0, errors.New("invalid day: use 1-6, a weekday name, today, or week")
	}
	return day, nil
}

func dayLabel(day int) string {
	if schedule.ValidDay(day) {
		return dayLabels[day]
	}
	return strconv.Itoa(day)
}

func courseLabel(course int) string {
	if course == 0 {
		return "-"
	}
	return strconv.Itoa(course)
}
