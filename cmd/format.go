package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/carefinder/pkg/columns"
	"github.com/rubiojr/carefinder/pkg/provider"
	"github.com/rubiojr/carefinder/pkg/search"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	summaryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("32")).
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("32")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	toneStyles = map[provider.Flag]lipgloss.Style{
		provider.FlagAffirmative: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		provider.FlagNegative:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		provider.FlagUnknown:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}

	titleCase = cases.Title(language.English)
)

// formatNumber formats a number with K/M suffixes for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	} else {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// formatTime formats a time relative to now or as an absolute date
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < 24*time.Hour {
		if diff < time.Hour {
			minutes := int(diff.Minutes())
			if minutes < 1 {
				return "just now"
			}
			return fmt.Sprintf("%d minutes ago", minutes)
		}
		hours := int(diff.Hours())
		return fmt.Sprintf("%d hours ago", hours)
	}

	if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%d days ago", days)
	}

	if t.Year() == now.Year() {
		return t.Format("Jan 2, 15:04")
	}
	return t.Format("Jan 2, 2006")
}

// formatRating renders a rating cell as "4.5 ★" or a dash when unrated.
func formatRating(p provider.Provider) string {
	r, ok := p.Rating()
	if !ok {
		return "—"
	}
	return fmt.Sprintf("%.1f ★", r)
}

// formatAccess renders the four access badges with their tone.
func formatAccess(p provider.Provider) string {
	parts := make([]string, 0, 4)
	for _, a := range p.Access() {
		mark := "?"
		switch a.Tone {
		case provider.FlagAffirmative:
			mark = "✓"
		case provider.FlagNegative:
			mark = "✗"
		}
		parts = append(parts, toneStyles[a.Tone].Render(mark+" "+a.Label))
	}
	return strings.Join(parts, "  ")
}

func formatCategories(p provider.Provider) string {
	shown, extra := columns.CategoryPreview(p, 3)
	if len(shown) == 0 {
		return ""
	}
	s := strings.Join(shown, ", ")
	if extra > 0 {
		s += fmt.Sprintf(" +%d", extra)
	}
	return s
}

// formatProviderCard renders one provider as a bordered card.
func formatProviderCard(index int, p provider.Provider) string {
	var b strings.Builder
	name := p.ProviderName
	if name == "" {
		name = "(unnamed provider)"
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d. %s", index, name)))
	b.WriteString("  " + formatRating(p) + "\n")

	if cats := formatCategories(p); cats != "" {
		b.WriteString(cats + "\n")
	}
	meta := make([]string, 0, 2)
	if p.OrganizationType != "" {
		meta = append(meta, titleCase.String(p.OrganizationType))
	}
	if p.Address != "" {
		meta = append(meta, p.Address)
	}
	if len(meta) > 0 {
		b.WriteString(metaStyle.Render(strings.Join(meta, " · ")) + "\n")
	}
	b.WriteString(formatAccess(p) + "\n")

	links := columns.ActionLinks(p)
	if links.Website != "" {
		b.WriteString(urlStyle.Render(links.Website) + "\n")
	}
	if links.Call {
		b.WriteString(urlStyle.Render(strings.TrimSpace(p.PhoneNumber)) + "\n")
	}
	if links.Maps != provider.NoLink {
		b.WriteString(urlStyle.Render(links.Maps))
	}
	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// formatResults renders a results page with its heading and pager line.
func formatResults(results *search.SearchResults, syncedLabel string) string {
	var out strings.Builder
	out.WriteString(titleStyle.Render(results.Heading))
	out.WriteString("\n")

	if results.Matched == 0 {
		out.WriteString(noDataStyle.Render("No providers match. Try fewer words or browse all providers."))
		out.WriteString("\n")
		return out.String()
	}

	page := results.Page
	summary := fmt.Sprintf("%s of %s providers • page %d of %d • Last synced %s",
		formatNumber(results.Matched), formatNumber(results.Total), page.PageIndex+1, page.PageCount, syncedLabel)
	out.WriteString(summaryStyle.Render(summary))
	out.WriteString("\n")

	offset := page.PageIndex * page.PageSize
	for i, p := range page.Items {
		out.WriteString(formatProviderCard(offset+i+1, p))
		out.WriteString("\n")
	}
	return out.String()
}

func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// displayWithPager displays content using a pager
func displayWithPager(content string) error {
	pagerCmd := os.Getenv("PAGER")
	if pagerCmd == "" {
		for _, pager := range []string{"less", "more", "cat"} {
			if _, err := exec.LookPath(pager); err == nil {
				pagerCmd = pager
				break
			}
		}
	}

	if pagerCmd == "" {
		fmt.Print(content)
		return nil
	}

	args := []string{}
	if strings.Contains(pagerCmd, "less") {
		args = []string{"-R", "-S", "-F", "-X"}
	}

	cmd := exec.Command(pagerCmd, args...)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// display prints output through a pager when stdout is a terminal.
func display(output string, noPager bool) error {
	if noPager || !isTerminal() {
		fmt.Print(output)
		return nil
	}
	return displayWithPager(output)
}

// formatProviderDetail renders every field of a provider, in sheet order.
func formatProviderDetail(p provider.Provider) string {
	width := 0
	for _, f := range provider.Fields {
		width = max(width, len(f.Header()))
	}

	var b strings.Builder
	name := p.ProviderName
	if name == "" {
		name = "(unnamed provider)"
	}
	b.WriteString(headerStyle.Render(name) + "\n")
	for _, f := range provider.Fields {
		value := strings.TrimSpace(p.Get(f))
		switch {
		case value == "":
			value = metaStyle.Render("not listed")
		case f == provider.FieldCategories:
			value = strings.Join(p.CategoryList(), ", ")
		default:
			if tone, ok := flagTone(f, value); ok {
				value = toneStyles[tone].Render(value)
			}
		}
		fmt.Fprintf(&b, "%s  %s\n", metaStyle.Render(fmt.Sprintf("%-*s", width, f.Header())), value)
	}

	links := columns.ActionLinks(p)
	if links.Maps != provider.NoLink {
		b.WriteString(urlStyle.Render(links.Maps))
	}
	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func flagTone(f provider.Field, value string) (provider.Flag, bool) {
	switch f {
	case provider.FieldInterpretersAvailable, provider.FieldTelehealth,
		provider.FieldFinancialAssistance, provider.FieldTransportation:
		return provider.ClassifyFlag(value), true
	}
	return provider.FlagUnknown, false
}
