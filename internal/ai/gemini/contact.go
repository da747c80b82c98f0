package gemini

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spigell/resume-matcher/internal/ai"
)

var (
	namePattern     = regexp.MustCompile(`^[A-Za-z][A-Za-z\s'-]*$`)
	emailPattern    = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phonePattern    = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	linkedInPattern = regexp.MustCompile(`(?i)(https?://)?(www\.)?linkedin\.com/in/[\w-]+/?`)
	gitHubPattern   = regexp.MustCompile(`(?i)(https?://)?(www\.)?github\.com/[\w-]+/?`)
)

// ExtractContact pulls applicant details out of resume text. The name is the
// first line when it consists only of letters, spaces, hyphens and apostrophes.
func ExtractContact(resume string) ai.Contact {
	var c ai.Contact

	firstLine, _, _ := strings.Cut(strings.TrimLeft(resume, " \t\r\n"), "\n")
	if firstLine = strings.TrimSpace(firstLine); namePattern.MatchString(firstLine) {
		c.Name = firstLine
	}

	c.Email = emailPattern.FindString(resume)
	c.Phone = strings.TrimSpace(phonePattern.FindString(resume))
	c.LinkedIn = linkedInPattern.FindString(resume)
	c.GitHub = gitHubPattern.FindString(resume)
	return c
}

func contactFallbacks(c ai.Contact) string {
	fallback := func(value, placeholder string) string {
		if value == "" {
			return placeholder
		}
		return value
	}

	return fmt.Sprintf("   - Name: %s\n   - Phone: %s\n   - Email: %s\n   - LinkedIn: %s\n   - GitHub: %s",
		fallback(c.Name, "[Your Name]"),
		fallback(c.Phone, "[Your Phone Number]"),
		fallback(c.Email, "[Your Email]"),
		fallback(c.LinkedIn, "[Your LinkedIn Profile URL]"),
		fallback(c.GitHub, "[Your GitHub Profile URL]"),
	)
}
