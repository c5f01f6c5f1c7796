package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/md-rashed-zaman/medportal/libs/grpcx"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/booking"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/directory"
	"github.com/md-rashed-zaman/medportal/services/portal-service/internal/grpcserver"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func (c *cli) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange credentials for a token and print export lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			res, err := client.Login(commandContext(cmd), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "export MEDPORTAL_TOKEN=%s\n", res.Token)
			fmt.Fprintf(c.out, "export MEDPORTAL_USER_ID=%s\n", res.User.ID)
			return nil
		},
	}
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password")
	return cmd
}

func (c *cli) doctorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "List doctors, optionally filtered by specialty and name",
		RunE: func(cmd *cobra.Command, args []string) error {
			specialty, _ := cmd.Flags().GetString("specialty")
			query, _ := cmd.Flags().GetString("query")
			d, err := c.deps()
			if err != nil {
				return err
			}
			doctors, err := d.directory.Doctors(commandContext(cmd), d.sess.Token)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSPECIALTY\tDAYS")
			for _, doc := range directory.Filter(doctors, specialty, query) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", doc.ID, doc.Name, doc.Specialty, strings.Join(doc.AvailableDays, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("specialty", directory.AllSpecialties, "specialty filter")
	cmd.Flags().String("query", "", "case-insensitive name search")
	return cmd
}

func (c *cli) daysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "days",
		Short: "List the selectable dates of a month for a doctor",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctorID, _ := cmd.Flags().GetString("doctor")
			rawMonth, _ := cmd.Flags().GetString("month")
			month, err := time.ParseInLocation("2006-01", rawMonth, time.Local)
			if err != nil {
				return fmt.Errorf("--month: %w", err)
			}
			d, err := c.deps()
			if err != nil {
				return err
			}
			days, err := d.orchestrator().AvailableDays(commandContext(cmd), d.sess, doctorID, month)
			if err != nil {
				return err
			}
			for _, day := range days {
				fmt.Fprintln(c.out, day)
			}
			return nil
		},
	}
	cmd.Flags().String("doctor", "", "doctor id")
	cmd.Flags().String("month", time.Now().Format("2006-01"), "month as YYYY-MM")
	_ = cmd.MarkFlagRequired("doctor")
	return cmd
}

func (c *cli) slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the free slots of a doctor on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctorID, _ := cmd.Flags().GetString("doctor")
			date, err := dateFlag(cmd)
			if err != nil {
				return err
			}
			d, err := c.deps()
			if err != nil {
				return err
			}
			labels, err := d.orchestrator().FreeSlots(commandContext(cmd), d.sess, doctorID, date)
			if err != nil {
				return err
			}
			if len(labels) == 0 {
				fmt.Fprintln(c.out, "no free slots")
				return nil
			}
			for _, l := range labels {
				fmt.Fprintln(c.out, l)
			}
			return nil
		},
	}
	cmd.Flags().String("doctor", "", "doctor id")
	cmd.Flags().String("date", "", "date as YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("doctor")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func (c *cli) bookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctorID, _ := cmd.Flags().GetString("doctor")
			label, _ := cmd.Flags().GetString("time")
			date, err := dateFlag(cmd)
			if err != nil {
				return err
			}
			d, err := c.deps()
			if err != nil {
				return err
			}
			appt, err := booking.NewBooker(d.client, nil, d.logger).Book(commandContext(cmd), d.sess, doctorID, date, label)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "booked %s %s %s (%s)\n", appt.ID, appt.Date, appt.Time, appt.Status)
			return nil
		},
	}
	cmd.Flags().String("doctor", "", "doctor id")
	cmd.Flags().String("date", "", "date as YYYY-MM-DD")
	cmd.Flags().String("time", "", `slot label, e.g. "09:00 - 09:30"`)
	for _, name := range []string{"doctor", "date", "time"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *cli) appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List the patient's appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			history, _ := cmd.Flags().GetBool("history")
			d, err := c.deps()
			if err != nil {
				return err
			}
			if d.sess.User.ID == "" {
				return errors.New("user id is required (--user-id or MEDPORTAL_USER_ID)")
			}
			appts, err := d.client.UserAppointments(commandContext(cmd), d.sess.Token, d.sess.User.ID)
			if err != nil {
				return err
			}
			if history {
				appts = booking.History(appts, directory.AllSpecialties, "")
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTIME\tSTATUS\tDOCTOR")
			for _, a := range appts {
				doctor := a.DoctorID
				if a.Doctor != nil {
					doctor = a.Doctor.Name
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Date, a.Time, a.Status, doctor)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("history", false, "only completed appointments")
	return cmd
}

func (c *cli) servicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "List the consultation and lab exam catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			specialty, _ := cmd.Flags().GetString("specialty")
			query, _ := cmd.Flags().GetString("query")
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSPECIALTY\tAVAILABLE")
			for _, s := range directory.Services(specialty, query) {
				fmt.Fprintf(tw, "%s\t%s\t%t\n", s.Name, s.Specialty, s.Available)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("specialty", directory.AllSpecialties, "specialty filter")
	cmd.Flags().String("query", "", "case-insensitive name search")
	return cmd
}

func (c *cli) healthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe a running portal-service over gRPC health",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			ctx := commandContext(cmd)
			conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{Timeout: c.v.GetDuration("timeout")})
			if err != nil {
				return fmt.Errorf("dial %s: %w", addr, err)
			}
			defer conn.Close()
			resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcserver.ServiceName})
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, resp.GetStatus().String())
			if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
				return errors.New("portal-service is not serving")
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "localhost:9090", "portal-service gRPC address")
	return cmd
}

func dateFlag(cmd *cobra.Command) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("date")
	date, err := time.ParseInLocation(booking.DateLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date: %w", err)
	}
	return date, nil
}
