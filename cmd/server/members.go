package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ammar-alrfee/fit-manager/internal/service"
	"github.com/Ammar-alrfee/fit-manager/internal/session"
)

var (
	listPage     int
	listPageSize int

	addInput service.CreateMemberRequest

	updateFlags struct {
		name, phone, plan, startDate string
		amountPaid                   float64
		active                       bool
		version                      int64
	}

	removeYes     bool
	removeVersion int64
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage gym members (admin)",
}

var membersListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List members, optionally filtered by name or phone",
	Args:  cobra.MaximumNArgs(1),
	RunE: withWorkstation(func(cmd *cobra.Command, args []string, w *workstation) error {
		if err := w.authorize(session.AreaMembers); err != nil {
			return err
		}
		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		page, err := w.client.ListMembers(cmd.Context(), query, listPage, listPageSize)
		if err != nil {
			return err
		}
		printMembers(cmd.OutOrStdout(), page.Members)
		fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d members)\n", page.Page, page.Pages, page.Total)
		return nil
	}),
}

var membersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new member",
	Args:  cobra.NoArgs,
	RunE: withWorkstation(func(cmd *cobra.Command, args []string, w *workstation) error {
		if err := w.authorize(session.AreaMembers); err != nil {
			return err
		}
		ctx := cmd.Context()

		if !cmd.Flags().Changed("amount") {
			plans, err := w.client.ListPlans(ctx)
			if err != nil {
				return err
			}
			for _, p := range plans {
				if strings.EqualFold(p.Plan, addInput.Plan) {
					addInput.AmountPaid = p.Price
				}
			}
		}

		member, err := w.client.CreateMember(ctx, &addInput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s), %s plan ending %s\n",
			member.Name, member.ID, member.Plan, member.EndDate)
		return nil
	}),
}

var membersUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change a member's details or subscription",
	Args:  cobra.ExactArgs(1),
	RunE: withWorkstation(func(cmd *cobra.Command, args []string, w *workstation) error {
		if err := w.authorize(session.AreaMembers); err != nil {
			return err
		}

		req := &service.UpdateMemberRequest{ID: args[0], ExpectedVersion: updateFlags.version}
		flags := cmd.Flags()
		if flags.Changed("name") {
			req.Name = &updateFlags.name
		}
		if flags.Changed("phone") {
			req.Phone = &updateFlags.phone
		}
		if flags.Changed("plan") {
			req.Plan = &updateFlags.plan
		}
		if flags.Changed("start") {
			req.StartDate = &updateFlags.startDate
		}
		if flags.Changed("amount") {
			req.AmountPaid = &updateFlags.amountPaid
		}
		if flags.Changed("active") {
			req.Active = &updateFlags.active
		}

		member, err := w.client.UpdateMember(cmd.Context(), req)
		if err != nil {
			return err
		}
		printMembers(cmd.OutOrStdout(), []service.Member{*member})
		return nil
	}),
}

var membersRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a member after confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: withWorkstation(func(cmd *cobra.Command, args []string, w *workstation) error {
		if err := w.authorize(session.AreaMembers); err != nil {
			return err
		}
		ctx := cmd.Context()

		member, err := w.client.GetMember(ctx, args[0])
		if err != nil {
			return err
		}

		if !removeYes {
			fmt.Fprintf(cmd.OutOrStdout(), "Delete %s (%s)? [y/N] ", member.Name, member.Phone)
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				return errors.New("cancelled")
			}
		}

		version := removeVersion
		if version == 0 {
			version = member.Version
		}
		if err := w.client.DeleteMember(ctx, member.ID, version); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", member.Name)
		return nil
	}),
}

func init() {
	membersListCmd.Flags().IntVar(&listPage, "page", 1, "page number, starting at 1")
	membersListCmd.Flags().IntVar(&listPageSize, "page-size", 10, "members per page")

	membersAddCmd.Flags().StringVar(&addInput.Name, "name", "", "full name")
	membersAddCmd.Flags().StringVar(&addInput.Phone, "phone", "", "phone number")
	membersAddCmd.Flags().StringVar(&addInput.Plan, "plan", "monthly", "monthly, quarterly or yearly")
	membersAddCmd.Flags().StringVar(&addInput.StartDate, "start", "", "start date, YYYY-MM-DD")
	membersAddCmd.Flags().Float64Var(&addInput.AmountPaid, "amount", 0, "amount paid (defaults to the plan price)")
	_ = membersAddCmd.MarkFlagRequired("name")
	_ = membersAddCmd.MarkFlagRequired("phone")
	_ = membersAddCmd.MarkFlagRequired("start")

	membersUpdateCmd.Flags().StringVar(&updateFlags.name, "name", "", "full name")
	membersUpdateCmd.Flags().StringVar(&updateFlags.phone, "phone", "", "phone number")
	membersUpdateCmd.Flags().StringVar(&updateFlags.plan, "plan", "", "monthly, quarterly or yearly")
	membersUpdateCmd.Flags().StringVar(&updateFlags.startDate, "start", "", "start date, YYYY-MM-DD")
	membersUpdateCmd.Flags().Float64Var(&updateFlags.amountPaid, "amount", 0, "amount paid")
	membersUpdateCmd.Flags().BoolVar(&updateFlags.active, "active", true, "whether the member may check in")
	membersUpdateCmd.Flags().Int64Var(&updateFlags.version, "version", 0, "expected version (0 skips the check)")

	membersRemoveCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "skip the confirmation prompt")
	membersRemoveCmd.Flags().Int64Var(&removeVersion, "version", 0, "expected version (defaults to the version just read)")

	membersCmd.AddCommand(membersListCmd, membersAddCmd, membersUpdateCmd, membersRemoveCmd)
}
