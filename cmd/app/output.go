package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/atvirokodosprendimai/webbudget/internal/adapters/view"
	"github.com/atvirokodosprendimai/webbudget/internal/domain"
)

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printPageFooter[T any](p domain.Page[T]) {
	fmt.Printf("page %d of %d, %d total\n", p.Number+1, max(p.TotalPages, 1), p.TotalElements)
}

func printCostCenters(p domain.Page[view.CostCenter]) {
	rows := make([][]string, 0, len(p.Content))
	for _, item := range p.Content {
		rows = append(rows, []string{item.ID.String(), item.Description, strconv.FormatBool(item.Active)})
	}
	printTable([]string{"ID", "DESCRIPTION", "ACTIVE"}, rows)
	printPageFooter(p)
}

func printCostCenter(item view.CostCenter) {
	printKV([][2]string{
		{"id", item.ID.String()},
		{"description", item.Description},
		{"active", strconv.FormatBool(item.Active)},
	})
}

func printUsers(p domain.Page[view.User]) {
	rows := make([][]string, 0, len(p.Content))
	for _, item := range p.Content {
		rows = append(rows, []string{
			item.ID.String(),
			item.Name,
			item.Email,
			strconv.FormatBool(item.Active),
			strings.Join(item.Authorities, ","),
		})
	}
	printTable([]string{"ID", "NAME", "EMAIL", "ACTIVE", "AUTHORITIES"}, rows)
	printPageFooter(p)
}

func printUser(item view.User) {
	printKV([][2]string{
		{"id", item.ID.String()},
		{"name", item.Name},
		{"email", item.Email},
		{"active", strconv.FormatBool(item.Active)},
		{"authorities", orDash(strings.Join(item.Authorities, ","))},
	})
}

func printGrants(items []view.Grant) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Authority, formatTime(item.GrantedAt)})
	}
	printTable([]string{"AUTHORITY", "GRANTED_AT"}, rows)
}

func printAuthorities(p domain.Page[view.Authority]) {
	rows := make([][]string, 0, len(p.Content))
	for _, item := range p.Content {
		rows = append(rows, []string{item.ID.String(), item.Name})
	}
	printTable([]string{"ID", "NAME"}, rows)
	printPageFooter(p)
}

func printAuthority(item view.Authority) {
	printKV([][2]string{
		{"id", item.ID.String()},
		{"name", item.Name},
	})
}

func printAuditRecords(items []domain.AuditRecord) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Action,
			item.TargetType,
			orDash(item.TargetID),
			orDash(item.ActorEmail),
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "ACTION", "TARGET_TYPE", "TARGET_ID", "ACTOR", "AT"}, rows)
}
