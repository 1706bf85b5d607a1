package branding

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"unicode"

	"github.com/startuplab/backend/core/plan"
)

var (
	// suggestions returned per request, by branding level
	suggestionCounts = map[string]int{
		plan.BrandingBasic:    3,
		plan.BrandingAdvanced: 6,
		plan.BrandingPremium:  10,
	}

	// logo styles and the branding level that unlocks them
	logoStyles = []struct{ name, level string }{
		{"minimal", plan.BrandingBasic},
		{"wordmark", plan.BrandingBasic},
		{"geometric", plan.BrandingAdvanced},
		{"emblem", plan.BrandingAdvanced},
		{"mascot", plan.BrandingPremium},
		{"gradient", plan.BrandingPremium},
	}

	prefixes = []string{"Neo", "Up", "Smart", "Eco", "Hyper", "Open", "Ze", "Nova"}
	suffixes = []string{"ly", "io", "ify", "hub", "lab", "go", "up", "ia"}

	industryWords = map[string][]string{
		"tech":          {"code", "data", "cloud", "pixel"},
		"santé":         {"vita", "care", "santé", "medi"},
		"éducation":     {"savoir", "edu", "campus", "learn"},
		"alimentation":  {"miam", "food", "terroir", "panier"},
		"finance":       {"fin", "cash", "capital", "pay"},
		"environnement": {"vert", "green", "terra", "eco"},
		"mode":          {"style", "look", "chic", "mode"},
		"tourisme":      {"voyage", "trip", "escale", "route"},
	}
	defaultWords = []string{"idée", "start", "vision", "projet"}

	sloganTemplates = []string{
		"%[1]s, l'avenir de %[2]s commence ici.",
		"Avec %[1]s, %[2]s devient simple.",
		"%[1]s : osez %[2]s autrement.",
		"%[1]s, la confiance au cœur de %[2]s.",
		"Réinventons %[2]s avec %[1]s.",
		"%[1]s, pensé pour vous, fait pour durer.",
		"%[1]s : %[3]s, chaque jour.",
		"Plus qu'une marque, %[1]s est une promesse.",
		"%[1]s, l'énergie de %[2]s.",
		"Grandir ensemble avec %[1]s.",
		"%[1]s : l'exigence de %[3]s.",
		"%[1]s, le futur de %[2]s, dès aujourd'hui.",
	}

	icons = map[string][]string{
		"tech":          {"circuit", "cube", "nuage"},
		"santé":         {"cœur", "feuille", "croix"},
		"éducation":     {"livre", "ampoule", "chapeau"},
		"alimentation":  {"épi", "pomme", "toque"},
		"finance":       {"graphique", "pièce", "bouclier"},
		"environnement": {"feuille", "goutte", "soleil"},
		"mode":          {"cintre", "diamant", "aiguille"},
		"tourisme":      {"avion", "boussole", "montagne"},
	}
	defaultIcons = []string{"étoile", "fusée", "cercle", "flèche"}

	fonts    = []string{"Montserrat", "Poppins", "Playfair Display", "Raleway", "Lato", "Roboto Slab", "Nunito", "Merriweather"}
	palettes = [][2]string{
		{"#1a73e8", "#fbbc04"},
		{"#0f9d58", "#f1f8e9"},
		{"#6a1b9a", "#ffd54f"},
		{"#d32f2f", "#263238"},
		{"#00838f", "#ffab91"},
		{"#212121", "#ff6f00"},
		{"#283593", "#80deea"},
		{"#2e7d32", "#fff176"},
	}
)

// LogoStyles returns the logo styles unlocked by the plan.
func LogoStyles(planID string) []string {
	styles := make([]string, 0, len(logoStyles))
	for _, s := range logoStyles {
		if plan.BrandingAllows(planID, s.level) {
			styles = append(styles, s.name)
		}
	}
	return styles
}

func logoStyleLevel(style string) (string, bool) {
	for _, s := range logoStyles {
		if s.name == style {
			return s.level, true
		}
	}
	return "", false
}

func suggestionCount(planID string) int {
	return suggestionCounts[plan.Get(planID).Branding]
}

// Generator builds names, slogans and logo concepts from static templates.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

func (g *Generator) shuffled(n int) []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Perm(n)
}

func (g *Generator) pick(list []string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return list[g.rnd.Intn(len(list))]
}

func words(keywords []string, industry string) []string {
	var ws []string
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			ws = append(ws, strings.Join(strings.Fields(k), ""))
		}
	}
	if len(ws) == 0 {
		if iw, ok := industryWords[strings.ToLower(strings.TrimSpace(industry))]; ok {
			ws = iw
		} else {
			ws = defaultWords
		}
	}
	return ws
}

// Names returns count distinct brand names.
func (g *Generator) Names(req NameRequest, count int) []string {
	ws := words(req.Keywords, req.Industry)

	var candidates []string
	for _, w := range ws {
		for _, s := range suffixes {
			candidates = append(candidates, title(w)+s)
		}
		for _, p := range prefixes {
			candidates = append(candidates, p+title(w))
		}
	}
	for i := 0; i+1 < len(ws); i++ {
		candidates = append(candidates, title(ws[i])+title(ws[i+1]))
	}
	return g.distinct(candidates, count)
}

// Slogans returns count distinct slogans for the brand.
func (g *Generator) Slogans(req SloganRequest, count int) []string {
	domain := strings.ToLower(strings.TrimSpace(req.Industry))
	if domain == "" {
		domain = "votre projet"
	}
	value := "la qualité"
	if vals := strings.Split(req.Values, ","); strings.TrimSpace(vals[0]) != "" {
		value = strings.ToLower(strings.TrimSpace(vals[0]))
	}

	candidates := make([]string, 0, len(sloganTemplates))
	for _, tmpl := range sloganTemplates {
		candidates = append(candidates, fmt.Sprintf(tmpl, req.BrandName, domain, value))
	}
	return g.distinct(candidates, count)
}

// Logos returns count logo concepts among styles.
func (g *Generator) Logos(req LogoRequest, industry string, styles []string, count int) []LogoSuggestion {
	if req.Style != "" {
		styles = []string{req.Style}
	}
	iconSet, ok := icons[strings.ToLower(strings.TrimSpace(industry))]
	if !ok {
		iconSet = defaultIcons
	}

	text := strings.TrimSpace(req.BrandName)
	logos := make([]LogoSuggestion, 0, count)
	for i, pi := range g.shuffled(len(palettes)) {
		if len(logos) == count {
			break
		}
		style := styles[i%len(styles)]
		logoText := text
		if style == "emblem" || style == "minimal" {
			logoText = initials(text)
		}
		logos = append(logos, LogoSuggestion{
			Style:          style,
			Text:           logoText,
			Icon:           g.pick(iconSet),
			Font:           g.pick(fonts),
			PrimaryColor:   palettes[pi][0],
			SecondaryColor: palettes[pi][1],
		})
	}
	return logos
}

func (g *Generator) distinct(candidates []string, count int) []string {
	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, count)
	for _, i := range g.shuffled(len(candidates)) {
		if len(out) == count {
			break
		}
		if c := candidates[i]; !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func title(w string) string {
	r := []rune(w)
	if len(r) == 0 {
		return w
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func initials(s string) string {
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return s
	case 1:
		r := []rune(strings.ToUpper(fields[0]))
		return string(r[:min(2, len(r))])
	}
	var b strings.Builder
	for i, f := range fields {
		if i == 3 {
			break
		}
		b.WriteRune(unicode.ToUpper([]rune(f)[0]))
	}
	return b.String()
}
