package idea

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
)

const (
	defaultSuggestions = 3
	maxSuggestions     = 10
)

type theme struct {
	focus    string
	problem  string
	solution string
	target   string
}

var (
	formats = []struct{ title, pitch string }{
		{"Plateforme %s", "Une plateforme en ligne qui centralise %s."},
		{"Application mobile %s", "Une application mobile qui simplifie %s au quotidien."},
		{"Marketplace %s", "Une place de marché qui met en relation les acteurs de %s."},
		{"Box par abonnement %s", "Un abonnement mensuel autour de %s, livré à domicile."},
		{"SaaS %s", "Un logiciel en ligne pour piloter %s."},
		{"Service à la demande %s", "Un service à la demande pour %s."},
	}

	themes = map[string][]theme{
		"tech": {
			{"cybersécurité des TPE", "les petites entreprises n'ont ni budget ni expertise en sécurité informatique", "un audit automatisé et des alertes en langage simple", "TPE et indépendants"},
			{"automatisation administrative", "les entrepreneurs perdent des heures sur la saisie administrative", "des assistants qui remplissent devis, factures et relances", "freelances"},
			{"recrutement de développeurs", "les startups peinent à évaluer le niveau technique des candidats", "des tests pratiques notés automatiquement", "startups en croissance"},
		},
		"santé": {
			{"suivi des maladies chroniques", "les patients oublient traitements et rendez-vous", "des rappels intelligents partagés avec le médecin", "patients chroniques"},
			{"téléconsultation rurale", "les déserts médicaux allongent les délais de consultation", "un réseau de médecins disponibles en visio", "habitants des zones rurales"},
			{"bien-être au travail", "le stress au travail augmente l'absentéisme", "des programmes courts de relaxation en entreprise", "DRH"},
		},
		"éducation": {
			{"soutien scolaire", "les familles ont du mal à trouver un tuteur fiable", "des tuteurs vérifiés et des séances en ligne", "parents de collégiens"},
			{"formation professionnelle", "les salariés manquent de temps pour se former", "des micro-formations de dix minutes par jour", "salariés en reconversion"},
			{"apprentissage des langues", "les cours classiques manquent de pratique orale", "des conversations avec des natifs à la demande", "étudiants"},
		},
		"alimentation": {
			{"anti-gaspillage alimentaire", "les commerces jettent des invendus encore consommables", "la revente des invendus à prix réduit", "consommateurs urbains"},
			{"repas sains au bureau", "les salariés mangent mal faute de temps", "des plats équilibrés livrés au bureau", "entreprises de plus de 50 salariés"},
			{"circuits courts", "les producteurs locaux vendent mal leurs récoltes", "des points de retrait de paniers locaux", "familles"},
		},
		"finance": {
			{"épargne des jeunes actifs", "les jeunes actifs n'épargnent pas faute de méthode", "un arrondi automatique des dépenses vers l'épargne", "25-35 ans"},
			{"trésorerie des PME", "les PME subissent des retards de paiement", "des prévisions de trésorerie et des relances automatiques", "dirigeants de PME"},
			{"paiement mobile", "une partie de la population n'a pas de compte bancaire", "un portefeuille mobile simple et sécurisé", "populations non bancarisées"},
		},
		"environnement": {
			{"recyclage des déchets électroniques", "les appareils usagés dorment dans les tiroirs", "une collecte à domicile avec reprise rémunérée", "ménages"},
			{"bilan carbone des PME", "les PME ne savent pas mesurer leur empreinte carbone", "un calcul automatique à partir des factures", "PME industrielles"},
			{"mobilité douce", "les trajets courts se font encore en voiture", "la location de vélos électriques entre voisins", "citadins"},
		},
		"mode": {
			{"seconde main", "les vêtements de qualité finissent jetés", "un service de revente clé en main", "consommateurs responsables"},
			{"location de tenues", "les tenues de cérémonie coûtent cher pour un seul usage", "la location de tenues livrées et récupérées", "invités de mariages"},
		},
		"tourisme": {
			{"tourisme local", "les voyageurs passent à côté des expériences authentiques", "des activités proposées par des habitants", "voyageurs curieux"},
			{"voyages d'affaires", "l'organisation des déplacements professionnels est chronophage", "un assistant qui réserve selon la politique voyage", "entreprises"},
		},
	}
)

// Industries returns the industries known to the generator, sorted.
func Industries() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generator builds idea suggestions from static templates.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate returns count distinct suggestions for industry, or for random industries if it is unknown or empty.
func (g *Generator) Generate(industry string, count int) []Suggestion {
	if count <= 0 {
		count = defaultSuggestions
	} else if count > maxSuggestions {
		count = maxSuggestions
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	industry = strings.ToLower(strings.TrimSpace(industry))
	industries := []string{industry}
	if _, ok := themes[industry]; !ok {
		industries = Industries()
	}

	type combo struct {
		industry string
		th, format int
	}
	var combos []combo
	for _, ind := range industries {
		for ti := range themes[ind] {
			for fi := range formats {
				combos = append(combos, combo{ind, ti, fi})
			}
		}
	}
	g.rnd.Shuffle(len(combos), func(i, j int) { combos[i], combos[j] = combos[j], combos[i] })

	// one suggestion per theme first; formats vary
	seen := make(map[string]bool)
	suggestions := make([]Suggestion, 0, count)
	for _, c := range combos {
		if len(suggestions) == count {
			break
		}
		key := fmt.Sprintf("%s/%d", c.industry, c.th)
		if seen[key] {
			continue
		}
		seen[key] = true
		suggestions = append(suggestions, build(c.industry, themes[c.industry][c.th], c.format))
	}
	for _, c := range combos {
		if len(suggestions) == count {
			break
		}
		s := build(c.industry, themes[c.industry][c.th], c.format)
		if !containsTitle(suggestions, s.Title) {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions
}

func build(industry string, th theme, format int) Suggestion {
	f := formats[format]
	return Suggestion{
		Title:        fmt.Sprintf(f.title, th.focus),
		Description:  fmt.Sprintf(f.pitch, th.focus),
		Industry:     industry,
		TargetMarket: th.target,
		Problem:      upperFirst(th.problem) + ".",
		Solution:     upperFirst(th.solution) + ".",
	}
}

func containsTitle(suggestions []Suggestion, title string) bool {
	for _, s := range suggestions {
		if s.Title == title {
			return true
		}
	}
	return false
}

func upperFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}
