package console

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"employee-portal/internal/api"
	"employee-portal/internal/models"
)

func newEmployeesCmd(a *app) *cobra.Command {
	var (
		page   int
		sortBy string
		search string
	)

	cmd := &cobra.Command{
		Use:   "employees",
		Short: "List employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := a.token()
			if err != nil {
				return err
			}
			res, err := a.api.ListEmployees(cmd.Context(), tok, api.EmployeeQuery{Page: page, SortBy: sortBy})
			if err != nil {
				return a.backendError("list employees", err)
			}

			out := cmd.OutOrStdout()
			list := models.FilterEmployees(res.Employees, search)
			if len(list) == 0 {
				fmt.Fprintln(out, "No employees found.")
				return nil
			}
			fmt.Fprintf(out, "%-8s  %-28s  %-20s  %s\n", "ID", "NAME", "DEPARTMENT", "STATUS")
			fmt.Fprintf(out, "%-8s  %-28s  %-20s  %s\n", "--", "----", "----------", "------")
			for _, e := range list {
				fmt.Fprintf(out, "%-8s  %-28s  %-20s  %s\n", e.ID, e.FullName(), e.DepartmentName, statusName(e.Active()))
			}
			printPager(out, models.NewPager(page, res.TotalPages, res.TotalItems))
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().StringVar(&sortBy, "sort", "id", "Sort key (id, firstName, departmentName)")
	cmd.Flags().StringVar(&search, "search", "", "Filter the page by name or department")
	return cmd
}

func newEmployeeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "employee <id>",
		Short: "Show one employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := models.ParseID(args[0])
			if err != nil {
				return err
			}
			tok, err := a.token()
			if err != nil {
				return err
			}
			e, err := a.api.Employee(cmd.Context(), tok, id)
			if err != nil {
				return a.backendError("get employee", err)
			}
			if e.ID == "" {
				e.ID = id
			}

			f := models.FormFromEmployee(*e)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", e.ID)
			fmt.Fprintf(out, "Name:        %s\n", e.FullName())
			fmt.Fprintf(out, "Department:  %s\n", e.DepartmentName)
			fmt.Fprintf(out, "Status:      %s\n", statusName(e.Active()))
			fmt.Fprintf(out, "Gender:      %s\n", f.Gender)
			if f.DateOfBirth != "" {
				fmt.Fprintf(out, "Born:        %s\n", f.DateOfBirth)
			}
			if e.Email != "" {
				fmt.Fprintf(out, "Email:       %s\n", e.Email)
			}
			if e.Phone != "" {
				fmt.Fprintf(out, "Phone:       %s\n", e.Phone)
			}
			if e.Address != "" {
				fmt.Fprintf(out, "Address:     %s\n", e.Address)
			}
			if e.Remark != "" {
				fmt.Fprintf(out, "Remark:      %s\n", e.Remark)
			}
			return nil
		},
	}
}

func newCustomersCmd(a *app) *cobra.Command {
	var (
		page   int
		filter models.CustomerFilter
	)

	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := filter.Validate(); err != nil {
				return err
			}
			tok, err := a.token()
			if err != nil {
				return err
			}
			res, err := a.api.ListCustomers(cmd.Context(), tok, page, filter)
			if err != nil {
				return a.backendError("list customers", err)
			}

			out := cmd.OutOrStdout()
			if len(res.Customers) == 0 {
				fmt.Fprintln(out, "No customers found.")
				return nil
			}
			fmt.Fprintf(out, "%-10s  %-30s  %-30s  %s\n", "CODE", "NAME", "ADDRESS", "GROUP")
			fmt.Fprintf(out, "%-10s  %-30s  %-30s  %s\n", "----", "----", "-------", "-----")
			for _, c := range res.Customers {
				name := c.TenKhachHang
				if c.NgungTheoDoi {
					name += " (inactive)"
				}
				fmt.Fprintf(out, "%-10s  %-30s  %-30s  %s\n", c.MaKhachHang, name, c.DiaChi, c.NhomKhNcc)
			}
			printPager(out, models.NewPager(page, res.TotalPages, res.TotalItems))
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().StringVar(&filter.By, "filter-by", "", "Filter field (tenKhachHang, diaChi, nhomKhNcc)")
	cmd.Flags().StringVar(&filter.Value, "filter-value", "", "Filter value")
	return cmd
}

func statusName(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func printPager(w io.Writer, p models.Pager) {
	if p.TotalPages <= 1 {
		return
	}
	fmt.Fprintf(w, "\nPage %d of %d (%d items)", p.Page, p.TotalPages, p.TotalItems)
	if p.HasNext {
		fmt.Fprintf(w, "; next: --page %d", p.Page+1)
	}
	fmt.Fprintln(w)
}
