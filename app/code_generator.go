package app

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode"

	"worklog/models"
	"worklog/ports"
)

const (
	fallbackDepartmentCode = "GEN"
	fallbackAreaCode       = "MISC"
	maxCollisionSuffix     = 99
)

// areaPattern maps a category-name pattern to a short uppercase tag.
type areaPattern struct {
	re  *regexp.Regexp
	tag string
}

// Specific multi-word patterns run before the general ones so
// "Project Management System Review" resolves to PMS, not REV.
var specificAreaPatterns = []areaPattern{
	{regexp.MustCompile(`(?i)project.*management.*system`), "PMS"},
	{regexp.MustCompile(`(?i)quality.*management.*system`), "QMS"},
	{regexp.MustCompile(`(?i)health.*safety.*environment`), "HSE"},
	{regexp.MustCompile(`(?i)standard.*operating.*procedure`), "SOP"},
	{regexp.MustCompile(`(?i)root.*cause.*analysis`), "RCA"},
	{regexp.MustCompile(`(?i)preventive.*maintenance`), "PM"},
}

var generalAreaPatterns = []areaPattern{
	{regexp.MustCompile(`(?i)inspect`), "INSP"},
	{regexp.MustCompile(`(?i)mainten`), "MAINT"},
	{regexp.MustCompile(`(?i)calibrat`), "CAL"},
	{regexp.MustCompile(`(?i)train`), "TRN"},
	{regexp.MustCompile(`(?i)audit`), "AUD"},
	{regexp.MustCompile(`(?i)report`), "RPT"},
	{regexp.MustCompile(`(?i)meet`), "MTG"},
	{regexp.MustCompile(`(?i)review`), "REV"},
	{regexp.MustCompile(`(?i)document`), "DOC"},
	{regexp.MustCompile(`(?i)clean`), "CLN"},
}

var abbreviationStopWords = map[string]bool{
	"and": true, "or": true, "the": true, "of": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "with": true, "by": true,
}

// CodeGenerator synthesizes unique, human-legible codes for categories that
// arrive without one. Generation never fails: every lookup error degrades to
// a documented fallback and is logged as a warning.
type CodeGenerator struct {
	categories  ports.CategoryRepository
	departments ports.DepartmentRepository
	clock       ports.Clock
}

// NewCodeGenerator creates a category code generator
func NewCodeGenerator(categories ports.CategoryRepository, departments ports.DepartmentRepository, clock ports.Clock) *CodeGenerator {
	return &CodeGenerator{
		categories:  categories,
		departments: departments,
		clock:       clock,
	}
}

// Generate returns a code for the category that is unique at the time of the
// check. A concurrent creation can still steal it before the insert lands;
// callers retry on the unique-constraint violation.
func (g *CodeGenerator) Generate(ctx context.Context, category *models.ActivityCategory) string {
	base := g.baseCode(ctx, category)
	return g.uniquify(ctx, base)
}

// Fallback appends a raw timestamp to the code, guaranteeing uniqueness when
// the numbered-suffix retries are exhausted.
func (g *CodeGenerator) Fallback(code string) string {
	return fmt.Sprintf("%s_%d", code, g.clock.Now().Unix())
}

func (g *CodeGenerator) baseCode(ctx context.Context, category *models.ActivityCategory) string {
	if category.ParentID != nil {
		parent, err := g.categories.GetByID(ctx, *category.ParentID)
		if err == nil {
			// Child codes carry the parent's code plus a zero-padded
			// sibling sequence; the area code is not used.
			seq, err := g.categories.CountChildren(ctx, parent.ID)
			if err != nil {
				log.Printf("[CodeGen] warning: counting children of %s failed: %v", parent.Code, err)
				seq = 0
			}
			return fmt.Sprintf("%s_%03d", parent.Code, seq+1)
		}
		log.Printf("[CodeGen] warning: parent %s lookup failed, composing a root code: %v", category.ParentID, err)
	}

	dept := g.resolveDepartmentCode(ctx, category)
	area := resolveAreaCode(category.Name)
	return dept + "_" + area
}

// resolveDepartmentCode prefers the category's own department, then the
// parent's, then the GEN default.
func (g *CodeGenerator) resolveDepartmentCode(ctx context.Context, category *models.ActivityCategory) string {
	if category.DepartmentID != nil {
		dept, err := g.departments.GetByID(ctx, *category.DepartmentID)
		if err == nil {
			return normalizeDepartmentCode(dept.Code)
		}
		log.Printf("[CodeGen] warning: department %s lookup failed, falling back: %v", category.DepartmentID, err)
	}

	if category.ParentID != nil {
		parent, err := g.categories.GetByID(ctx, *category.ParentID)
		if err == nil && parent.DepartmentID != nil {
			dept, err := g.departments.GetByID(ctx, *parent.DepartmentID)
			if err == nil {
				return normalizeDepartmentCode(dept.Code)
			}
			log.Printf("[CodeGen] warning: parent department %s lookup failed, falling back: %v", parent.DepartmentID, err)
		}
	}

	return fallbackDepartmentCode
}

func normalizeDepartmentCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, " ", "")
	if code == "" {
		return fallbackDepartmentCode
	}
	if len(code) > 3 {
		code = code[:3]
	}
	return code
}

// resolveAreaCode derives a short uppercase tag from the category name:
// specific patterns, then general patterns, then an initials abbreviation.
func resolveAreaCode(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fallbackAreaCode
	}

	for _, p := range specificAreaPatterns {
		if p.re.MatchString(trimmed) {
			return p.tag
		}
	}
	for _, p := range generalAreaPatterns {
		if p.re.MatchString(trimmed) {
			return p.tag
		}
	}

	return abbreviate(trimmed)
}

// abbreviate builds a tag from the initials of significant words, skipping
// stop-words and words of two letters or fewer, capped at five initials,
// padded from the first word's letters when under three characters, and
// finally truncated to six.
func abbreviate(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var significant []string
	for _, w := range words {
		if len(w) <= 2 || abbreviationStopWords[strings.ToLower(w)] {
			continue
		}
		significant = append(significant, w)
	}

	var b strings.Builder
	for i, w := range significant {
		if i >= 5 {
			break
		}
		b.WriteString(strings.ToUpper(w[:1]))
	}
	abbr := b.String()

	if len(abbr) < 3 && len(significant) > 0 {
		first := strings.ToUpper(significant[0])
		for i := 1; i < len(first) && len(abbr) < 3; i++ {
			abbr += first[i : i+1]
		}
	}

	if abbr == "" {
		// Nothing significant in the name; fall back to its raw letters.
		var letters strings.Builder
		for _, r := range strings.ToUpper(name) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				letters.WriteRune(r)
			}
		}
		abbr = letters.String()
	}
	if abbr == "" {
		return fallbackAreaCode
	}
	if len(abbr) > 6 {
		abbr = abbr[:6]
	}
	return abbr
}

// uniquify appends _01.._99 until the code is free; after that a raw
// timestamp suffix guarantees uniqueness. Not elegant, but it always
// converges.
func (g *CodeGenerator) uniquify(ctx context.Context, base string) string {
	exists, err := g.categories.ExistsByCode(ctx, base)
	if err != nil {
		log.Printf("[CodeGen] warning: uniqueness check for %q failed, using timestamp suffix: %v", base, err)
		return g.Fallback(base)
	}
	if !exists {
		return base
	}

	for i := 1; i <= maxCollisionSuffix; i++ {
		candidate := fmt.Sprintf("%s_%02d", base, i)
		exists, err := g.categories.ExistsByCode(ctx, candidate)
		if err != nil {
			log.Printf("[CodeGen] warning: uniqueness check for %q failed, using timestamp suffix: %v", candidate, err)
			return g.Fallback(base)
		}
		if !exists {
			return candidate
		}
	}

	log.Printf("[CodeGen] warning: %q exhausted %d collision suffixes, using timestamp suffix", base, maxCollisionSuffix)
	return g.Fallback(base)
}
