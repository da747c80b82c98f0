package ats

import (
	"regexp"
	"strings"
)

// Contact is the contact block as an ATS would find it.
type Contact struct {
	Phone        string `json:"phone_number,omitempty"`
	Email        string `json:"email_address,omitempty"`
	EmailWarning string `json:"email_warning,omitempty"`
	LinkedIn     string `json:"linkedin_url,omitempty"`
	GitHub       string `json:"github_url,omitempty"`
	Portfolio    string `json:"portfolio_url,omitempty"`
	Location     string `json:"location,omitempty"`
}

const (
	phoneLines    = 5
	nearbyLines   = 10
	minPhoneDigit = 10
	maxPhoneDigit = 15
)

var (
	labelledPhone = regexp.MustCompile(`(?i)(?:phone|mobile|tel\.?):?\s*([+()\d\s-]{10,})`)
	barePhone     = regexp.MustCompile(`(?:^|\s)(?:[+(]?\d{1,3}[).\s-]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	contactEmail  = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	linkedInURL   = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?linkedin\.com/in/[\w.-]+/?`)
	gitHubURL     = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/[\w.-]+/?`)
	websiteURL    = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?[\w.-]+\.(?:com|io|dev|me|net|org|ai|co|tech|app|page)/?[\w\-/.?=&%]*`)
	locationLabel = regexp.MustCompile(`(?i)address:|location:`)
	cityState     = regexp.MustCompile(`\b[A-Z][a-zA-Z. -]+?,\s*[A-Z][a-zA-Z. -]+\b`)
	digit         = regexp.MustCompile(`\d`)
	onlyDigits    = regexp.MustCompile(`^\d+$`)
)

var (
	freeMailDomains   = []string{"aol.com", "yahoo.com", "hotmail.com", "ymail.com"}
	portfolioKeywords = []string{"portfolio", "website", "blog", "behance", "dribbble", "medium", "gitlab"}
	portfolioHosts    = []string{".dev", ".me", ".io", ".ai", ".tech", ".app", ".page", "behance.net", "dribbble.com", "medium.com"}
)

// ContactInfo finds the phone, email, profile links and location in text.
func ContactInfo(text string) Contact {
	var c Contact
	lines := strings.Split(text, "\n")

	c.Phone = findPhone(head(lines, phoneLines))

	if email := contactEmail.FindString(text); email != "" {
		c.Email = email
		lower := strings.ToLower(email)
		for _, domain := range freeMailDomains {
			if strings.Contains(lower, domain) {
				c.EmailWarning = "Consider using a more standard/professional email provider (e.g., Gmail, Outlook, custom domain)."
				break
			}
		}
	}

	c.LinkedIn = strings.TrimSpace(linkedInURL.FindString(text))
	if gh := strings.TrimSpace(gitHubURL.FindString(text)); gh != c.LinkedIn {
		c.GitHub = gh
	}

	c.Portfolio = findPortfolio(text, head(lines, nearbyLines), c)
	c.Location = findLocation(lines)
	return c
}

func head(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func findPhone(lines []string) string {
	for _, line := range lines {
		candidate := ""
		if m := labelledPhone.FindStringSubmatch(line); m != nil {
			candidate = m[1]
		} else {
			candidate = barePhone.FindString(line)
		}

		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if digits := len(digit.FindAllString(candidate, -1)); digits >= minPhoneDigit && digits <= maxPhoneDigit {
			return candidate
		}
	}
	return ""
}

// findPortfolio returns the first website that is neither a profile already
// found nor an email domain, and that sits next to a portfolio keyword or on a
// developer-style host.
func findPortfolio(text string, top []string, c Contact) string {
	email := strings.ToLower(c.Email)

	for _, url := range websiteURL.FindAllString(text, -1) {
		lower := strings.ToLower(url)
		switch {
		case c.LinkedIn != "" && strings.Contains(url, c.LinkedIn),
			c.GitHub != "" && strings.Contains(url, c.GitHub),
			email != "" && strings.Contains(email, lower):
			continue
		}

		nearKeyword := false
		for _, line := range top {
			line = strings.ToLower(line)
			if strings.Contains(line, lower) && containsAny(line, portfolioKeywords) {
				nearKeyword = true
				break
			}
		}

		if nearKeyword || containsAny(lower, portfolioHosts) {
			return strings.TrimSpace(url)
		}
	}
	return ""
}

func findLocation(lines []string) string {
	location := ""

	top := head(lines, nearbyLines)
	for i, line := range top {
		if !locationLabel.MatchString(line) {
			continue
		}
		parts := locationLabel.Split(line, -1)
		part := strings.TrimSpace(parts[len(parts)-1])
		if part == "" {
			continue
		}
		// A bare label line carries the address on the next one.
		if len(part) < 10 && i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" && !strings.Contains(lines[i+1], ":") {
			location = strings.TrimSpace(lines[i+1])
		} else {
			location = part
		}
		break
	}

	if location == "" {
		for _, line := range head(lines, phoneLines) {
			if strings.ContainsAny(line, "@(") || strings.Contains(line, "http") {
				continue
			}
			candidate := strings.TrimSpace(cityState.FindString(line))
			if candidate == "" || candidate == strings.ToUpper(candidate) || len(candidate) <= 3 || onlyDigits.MatchString(candidate) {
				continue
			}
			location = candidate
			break
		}
	}

	location = strings.Trim(location, " .,")
	if len(digit.FindAllString(location, -1)) > 6 && len(location) < 25 {
		return ""
	}
	return location
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
