package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Ammar-alrfee/fit-manager/internal/service"
	"github.com/Ammar-alrfee/fit-manager/internal/session"
	"github.com/Ammar-alrfee/fit-manager/internal/storage/badger"
)

// workstation is the signed-in session of this device plus a client for the server.
type workstation struct {
	client  *service.Client
	session *session.Manager
	slot    *badger.Slot
}

// openWorkstation opens the persisted identity slot, restores any previous
// session and wires its token into the API client.
func openWorkstation(ctx context.Context) (*workstation, error) {
	slot, err := badger.Open(badger.Config{Path: cfg.Session.Path, Logger: slog.Default()})
	if err != nil {
		return nil, err
	}

	client := service.NewClient(&http.Client{Timeout: 15 * time.Second}, cfg.Server.URL)
	manager := session.NewManager(client, slot, nil)
	client.SetTokenSource(manager.Token)

	if _, err := manager.Restore(ctx); err != nil {
		slot.Close()
		return nil, err
	}
	return &workstation{client: client, session: manager, slot: slot}, nil
}

func (w *workstation) Close() error {
	return w.slot.Close()
}

// authorize fails early when the restored identity may not reach area.
func (w *workstation) authorize(area session.Area) error {
	if err := w.session.Authorize(area); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			return errors.New("not signed in, run `fitmanager login` first")
		}
		return err
	}
	return nil
}

// withWorkstation runs fn with an open workstation and closes it afterwards.
func withWorkstation(fn func(cmd *cobra.Command, args []string, w *workstation) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		w, err := openWorkstation(cmd.Context())
		if err != nil {
			return err
		}
		defer w.Close()
		return fn(cmd, args, w)
	}
}

var (
	loginUsername string
	loginPassword string

	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in as a staff member",
		Args:  cobra.NoArgs,
		RunE: withWorkstation(func(cmd *cobra.Command, args []string, w *workstation) error {
			if loginPassword == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				loginPassword = strings.TrimRight(line, "\r\n")
			}

			identity, err := w.session.Authenticate(cmd.Context(), loginUsername, loginPassword)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", identity.Name, identity.Role)
			return nil
		}),
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored identity",
		Args:  cobra.NoArgs,
		RunE: withWorkstation(func(cmd *cobra.Command, args []string, w *workstation) error {
			if err := w.session.End(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		}),
	}

	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity and the areas it may open",
		Args:  cobra.NoArgs,
		RunE: withWorkstation(func(cmd *cobra.Command, args []string, w *workstation) error {
			identity, ok := w.session.Current()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			areas := make([]string, 0, len(w.session.Areas()))
			for _, a := range w.session.Areas() {
				areas = append(areas, string(a))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\nAreas: %s\n",
				identity.Name, identity.Username, identity.Role, strings.Join(areas, ", "))
			return nil
		}),
	}

	checkinID string

	checkinCmd = &cobra.Command{
		Use:   "checkin [name or phone]",
		Short: "Check a member in",
		Long: `Searches members who may check in by name or phone. When exactly one
member matches, or --id is given, that member is checked in.`,
		Args: cobra.MaximumNArgs(1),
		RunE: withWorkstation(func(cmd *cobra.Command, args []string, w *workstation) error {
			if err := w.authorize(session.AreaAttendance); err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			memberID := checkinID
			if memberID == "" {
				if len(args) == 0 {
					return errors.New("give a name or phone to search, or --id")
				}
				candidates, err := w.client.FindCandidates(ctx, args[0])
				if err != nil {
					return err
				}
				switch len(candidates) {
				case 0:
					fmt.Fprintln(out, "No eligible members match")
					return nil
				case 1:
					memberID = candidates[0].ID
				default:
					printMembers(out, candidates)
					fmt.Fprintln(out, "Several members match; rerun with --id")
					return nil
				}
			}

			record, err := w.client.CheckIn(ctx, memberID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Checked in %s at %s on %s\n", record.MemberName, record.CheckInTime, record.Date)
			return nil
		}),
	}

	todayCmd = &cobra.Command{
		Use:   "today",
		Short: "List today's check-ins, newest first",
		Args:  cobra.NoArgs,
		RunE: withWorkstation(func(cmd *cobra.Command, args []string, w *workstation) error {
			if err := w.authorize(session.AreaAttendance); err != nil {
				return err
			}
			today, err := w.client.TodayRecords(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "TIME\tMEMBER\tMEMBER ID\n")
			for _, r := range today.Records {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.CheckInTime, r.MemberName, r.MemberID)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d check-ins on %s\n", len(today.Records), today.Date)
			return nil
		}),
	}

	reportOutput string

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Print the membership and revenue report",
		Args:  cobra.NoArgs,
		RunE: withWorkstation(func(cmd *cobra.Command, args []string, w *workstation) error {
			if err := w.authorize(session.AreaReports); err != nil {
				return err
			}
			report, err := w.client.GetReport(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), reportOutput, report)
		}),
	}
)

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "staff username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when omitted)")
	_ = loginCmd.MarkFlagRequired("username")

	checkinCmd.Flags().StringVar(&checkinID, "id", "", "member ID to check in")

	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "yaml", "output format: yaml or json")
}

// render writes v as yaml or json.
func render(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func printMembers(w io.Writer, members []service.Member) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tNAME\tPHONE\tPLAN\tEND DATE\tSTATUS\n")
	for _, m := range members {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Phone, m.Plan, m.EndDate, m.Status)
	}
	_ = tw.Flush()
}
