package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hession/sidekick/internal/logger"
)

// maxNotes caps the contextual note list (oldest evicted first)
const maxNotes = 50

// Pet is one pet entry in the profile
type Pet struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Breed string `json:"breed,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// Project is one project entry in the profile
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"` // active | paused | completed
	Added       string `json:"added"`
}

// Note is one dated contextual note
type Note struct {
	Date string `json:"date"`
	Text string `json:"note"`
}

// profileRecord is the whole-file JSON layout of the user profile
type profileRecord struct {
	Personal       map[string]string `json:"personal"`
	Interests      []string          `json:"interests"`
	Pets           []Pet             `json:"pets"`
	Family         map[string]string `json:"family"`
	Projects       []Project         `json:"projects"`
	Preferences    map[string]string `json:"preferences"`
	Goals          []string          `json:"goals"`
	TechStack      []string          `json:"tech_stack"`
	ImportantDates map[string]string `json:"important_dates"`
	Notes          []Note            `json:"notes"`
	LastUpdated    string            `json:"last_updated,omitempty"`
}

// Profile maintains the structured, categorized user profile.
// Every mutator persists the whole record synchronously.
type Profile struct {
	path string
	mu   sync.Mutex
	data profileRecord
}

// NewProfile opens (or creates) the user profile at the given path
func NewProfile(path string) *Profile {
	p := &Profile{path: path}
	p.data = p.load()
	return p
}

func (p *Profile) load() profileRecord {
	fresh := profileRecord{
		Personal:       make(map[string]string),
		Family:         make(map[string]string),
		Preferences:    make(map[string]string),
		ImportantDates: make(map[string]string),
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return fresh
	}

	var rec profileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Warn("user profile %s is corrupt, starting fresh: %v", p.path, err)
		return fresh
	}
	if rec.Personal == nil {
		rec.Personal = make(map[string]string)
	}
	if rec.Family == nil {
		rec.Family = make(map[string]string)
	}
	if rec.Preferences == nil {
		rec.Preferences = make(map[string]string)
	}
	if rec.ImportantDates == nil {
		rec.ImportantDates = make(map[string]string)
	}
	return rec
}

// save rewrites the whole record. I/O failures are logged, not raised.
func (p *Profile) save() {
	p.data.LastUpdated = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		logger.Error("failed to serialize user profile: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		logger.Error("failed to create profile directory: %v", err)
		return
	}
	if err := os.WriteFile(p.path, data, 0644); err != nil {
		logger.Error("failed to write user profile: %v", err)
	}
}

// UpdatePersonal sets a personal info field (name, age, location, occupation, ...)
func (p *Profile) UpdatePersonal(field, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.Personal[field] = value
	p.save()
}

// Personal returns a personal info field, or "" if unset
func (p *Profile) Personal(field string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.Personal[field]
}

// AddInterest appends an interest if not already present
func (p *Profile) AddInterest(interest string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.data.Interests {
		if existing == interest {
			return
		}
	}
	p.data.Interests = append(p.data.Interests, interest)
	p.save()
}

// RemoveInterest removes an interest
func (p *Profile) RemoveInterest(interest string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.data.Interests {
		if existing == interest {
			p.data.Interests = append(p.data.Interests[:i], p.data.Interests[i+1:]...)
			p.save()
			return
		}
	}
}

// Interests returns a copy of the interest list
func (p *Profile) Interests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.data.Interests...)
}

// AddPet adds a pet entry
func (p *Profile) AddPet(name, petType, breed, notes string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.Pets = append(p.data.Pets, Pet{
		Name:  name,
		Type:  petType,
		Breed: breed,
		Notes: notes,
	})
	p.save()
}

// RemovePet removes all pets with the given name
func (p *Profile) RemovePet(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.data.Pets[:0]
	for _, pet := range p.data.Pets {
		if pet.Name != name {
			kept = append(kept, pet)
		}
	}
	p.data.Pets = kept
	p.save()
}

// Pets returns a copy of the pet list
func (p *Profile) Pets() []Pet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Pet(nil), p.data.Pets...)
}

// UpdateFamily sets a family member by relation
func (p *Profile) UpdateFamily(relation, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.Family[relation] = name
	p.save()
}

// AddProject adds a project entry. An empty status defaults to "active".
func (p *Profile) AddProject(name, description, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if status == "" {
		status = "active"
	}
	p.data.Projects = append(p.data.Projects, Project{
		Name:        name,
		Description: description,
		Status:      status,
		Added:       time.Now().Format(time.RFC3339),
	})
	p.save()
}

// UpdateProjectStatus updates the status of the first project with the given name
func (p *Profile) UpdateProjectStatus(name, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.data.Projects {
		if p.data.Projects[i].Name == name {
			p.data.Projects[i].Status = status
			p.save()
			return
		}
	}
}

// RemoveProject removes all projects with the given name
func (p *Profile) RemoveProject(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.data.Projects[:0]
	for _, project := range p.data.Projects {
		if project.Name != name {
			kept = append(kept, project)
		}
	}
	p.data.Projects = kept
	p.save()
}

// UpdatePreference sets a preference (communication_style, technical_level, ...)
func (p *Profile) UpdatePreference(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.Preferences[key] = value
	p.save()
}

// AddGoal appends a goal if not already present
func (p *Profile) AddGoal(goal string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.data.Goals {
		if existing == goal {
			return
		}
	}
	p.data.Goals = append(p.data.Goals, goal)
	p.save()
}

// RemoveGoal removes a goal
func (p *Profile) RemoveGoal(goal string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.data.Goals {
		if existing == goal {
			p.data.Goals = append(p.data.Goals[:i], p.data.Goals[i+1:]...)
			p.save()
			return
		}
	}
}

// AddTech appends a technology to the tech stack if not already present
func (p *Profile) AddTech(technology string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.data.TechStack {
		if existing == technology {
			return
		}
	}
	p.data.TechStack = append(p.data.TechStack, technology)
	p.save()
}

// RemoveTech removes a technology from the tech stack
func (p *Profile) RemoveTech(technology string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.data.TechStack {
		if existing == technology {
			p.data.TechStack = append(p.data.TechStack[:i], p.data.TechStack[i+1:]...)
			p.save()
			return
		}
	}
}

// TechStack returns a copy of the tech stack
func (p *Profile) TechStack() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.data.TechStack...)
}

// AddDate sets an important date (ISO format recommended)
func (p *Profile) AddDate(event, date string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.ImportantDates[event] = date
	p.save()
}

// AddNote appends a dated contextual note, evicting the oldest past the cap
func (p *Profile) AddNote(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.Notes = append(p.data.Notes, Note{
		Date: time.Now().Format(time.RFC3339),
		Text: text,
	})
	if len(p.data.Notes) > maxNotes {
		p.data.Notes = p.data.Notes[len(p.data.Notes)-maxNotes:]
	}
	p.save()
}

// Notes returns a copy of the note list
func (p *Profile) Notes() []Note {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Note(nil), p.data.Notes...)
}

// IsEmpty reports whether the profile has no personal info, interests, pets,
// family, projects or goals. Tech stack, preferences and notes are deliberately
// excluded: they can be populated by tooling without the user ever introducing
// themselves, and "new user" detection keys off the categories above.
func (p *Profile) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.data.Personal) == 0 &&
		len(p.data.Interests) == 0 &&
		len(p.data.Pets) == 0 &&
		len(p.data.Family) == 0 &&
		len(p.data.Projects) == 0 &&
		len(p.data.Goals) == 0
}

// Summary renders the full multi-section human-readable profile
func (p *Profile) Summary() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lines []string

	if len(p.data.Personal) > 0 {
		lines = append(lines, "## Personal Info")
		for key, value := range p.data.Personal {
			lines = append(lines, fmt.Sprintf("- %s: %s", titleCase(key), value))
		}
		lines = append(lines, "")
	}

	if len(p.data.Interests) > 0 {
		lines = append(lines, "## Interests & Hobbies")
		for _, interest := range p.data.Interests {
			lines = append(lines, "- "+interest)
		}
		lines = append(lines, "")
	}

	if len(p.data.Pets) > 0 {
		lines = append(lines, "## Pets")
		for _, pet := range p.data.Pets {
			lines = append(lines, "- "+formatPet(pet))
		}
		lines = append(lines, "")
	}

	if len(p.data.Family) > 0 {
		lines = append(lines, "## Family")
		for relation, name := range p.data.Family {
			lines = append(lines, fmt.Sprintf("- %s: %s", titleCase(relation), name))
		}
		lines = append(lines, "")
	}

	if len(p.data.Projects) > 0 {
		lines = append(lines, "## Current Projects")
		for _, project := range p.data.Projects {
			emoji := "✅"
			switch project.Status {
			case "active":
				emoji = "🟢"
			case "paused":
				emoji = "⏸️"
			}
			lines = append(lines, fmt.Sprintf("- %s %s", emoji, project.Name))
			if project.Description != "" {
				lines = append(lines, "  "+project.Description)
			}
		}
		lines = append(lines, "")
	}

	if len(p.data.Preferences) > 0 {
		lines = append(lines, "## Preferences")
		for key, value := range p.data.Preferences {
			lines = append(lines, fmt.Sprintf("- %s: %s", titleCase(strings.ReplaceAll(key, "_", " ")), value))
		}
		lines = append(lines, "")
	}

	if len(p.data.Goals) > 0 {
		lines = append(lines, "## Goals")
		for _, goal := range p.data.Goals {
			lines = append(lines, "- "+goal)
		}
		lines = append(lines, "")
	}

	if len(p.data.TechStack) > 0 {
		lines = append(lines, "## Tech Stack")
		lines = append(lines, "- "+strings.Join(p.data.TechStack, ", "))
		lines = append(lines, "")
	}

	if len(p.data.ImportantDates) > 0 {
		lines = append(lines, "## Important Dates")
		for event, date := range p.data.ImportantDates {
			lines = append(lines, fmt.Sprintf("- %s: %s", titleCase(event), date))
		}
		lines = append(lines, "")
	}

	if len(p.data.Notes) > 0 {
		lines = append(lines, "## Recent Notes")
		notes := p.data.Notes
		if len(notes) > 5 {
			notes = notes[len(notes)-5:]
		}
		for _, note := range notes {
			date := note.Date
			if len(date) > 10 {
				date = date[:10]
			}
			lines = append(lines, fmt.Sprintf("- [%s] %s", date, note.Text))
		}
		lines = append(lines, "")
	}

	if len(lines) == 0 {
		return "No profile information yet. Tell me about yourself!"
	}

	return strings.Join(lines, "\n")
}

// SystemPromptSummary renders a compact tiered subset for prompt injection:
// identity line, top 3 interests, up to 2 active projects, top 3 tech items,
// plus a hint when omitted categories hold data.
func (p *Profile) SystemPromptSummary(maxLines int) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lines []string

	// Tier 1: core identity
	name := p.data.Personal["name"]
	occupation := p.data.Personal["occupation"]
	switch {
	case name != "" && occupation != "":
		lines = append(lines, fmt.Sprintf("User: %s, %s", name, occupation))
	case name != "":
		lines = append(lines, "User: "+name)
	case occupation != "":
		lines = append(lines, "User's occupation: "+occupation)
	}

	// Tier 2: frequently relevant, compact
	if interests := headOf(p.data.Interests, 3); len(interests) > 0 {
		lines = append(lines, "Interests: "+strings.Join(interests, ", "))
	}

	var active []string
	for _, project := range p.data.Projects {
		if project.Status == "active" {
			active = append(active, project.Name)
			if len(active) == 2 {
				break
			}
		}
	}
	if len(active) > 0 {
		lines = append(lines, "Working on: "+strings.Join(active, ", "))
	}

	if tech := headOf(p.data.TechStack, 3); len(tech) > 0 {
		lines = append(lines, "Uses: "+strings.Join(tech, ", "))
	}

	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	if p.hasAdditionalContext() {
		lines = append(lines, "(More profile details available via profile tools)")
	}

	return strings.Join(lines, "\n")
}

// hasAdditionalContext reports whether categories omitted from the compact
// summary hold data. Caller must hold the mutex.
func (p *Profile) hasAdditionalContext() bool {
	return len(p.data.Interests) > 3 ||
		len(p.data.Pets) > 0 ||
		len(p.data.Family) > 0 ||
		len(p.data.Goals) > 0 ||
		len(p.data.Preferences) > 0
}

// Keyword triggers for on-demand contextual retrieval
var (
	petKeywords        = []string{"pet", "dog", "cat", "animal", "puppy", "kitten"}
	familyKeywords     = []string{"family", "spouse", "wife", "husband", "child", "parent", "sibling"}
	goalKeywords       = []string{"goal", "learn", "achieve", "want to", "planning"}
	preferenceKeywords = []string{"prefer", "like", "style", "way"}
)

// ContextualInfo returns only the categories whose trigger keywords appear
// in the (already lowercased) text; empty string when none match.
func (p *Profile) ContextualInfo(queryLower string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var relevant []string

	if containsAny(queryLower, petKeywords) && len(p.data.Pets) > 0 {
		var pets []string
		for _, pet := range p.data.Pets {
			entry := fmt.Sprintf("%s (%s", pet.Name, pet.Type)
			if pet.Breed != "" {
				entry += ", " + pet.Breed
			}
			entry += ")"
			pets = append(pets, entry)
		}
		relevant = append(relevant, "Pets: "+strings.Join(pets, ", "))
	}

	if containsAny(queryLower, familyKeywords) && len(p.data.Family) > 0 {
		var family []string
		for relation, name := range p.data.Family {
			family = append(family, fmt.Sprintf("%s: %s", relation, name))
		}
		relevant = append(relevant, "Family: "+strings.Join(family, ", "))
	}

	if containsAny(queryLower, goalKeywords) && len(p.data.Goals) > 0 {
		relevant = append(relevant, "Goals: "+strings.Join(headOf(p.data.Goals, 3), ", "))
	}

	if containsAny(queryLower, preferenceKeywords) && len(p.data.Preferences) > 0 {
		var prefs []string
		for key, value := range p.data.Preferences {
			prefs = append(prefs, fmt.Sprintf("%s: %s", strings.ReplaceAll(key, "_", " "), value))
		}
		relevant = append(relevant, "Preferences: "+strings.Join(prefs, ", "))
	}

	return strings.Join(relevant, "\n")
}

func formatPet(pet Pet) string {
	s := fmt.Sprintf("%s (%s", pet.Name, pet.Type)
	if pet.Breed != "" {
		s += ", " + pet.Breed
	}
	s += ")"
	if pet.Notes != "" {
		s += " - " + pet.Notes
	}
	return s
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func headOf(items []string, n int) []string {
	if len(items) > n {
		items = items[:n]
	}
	return append([]string(nil), items...)
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
