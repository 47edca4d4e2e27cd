package tools

import (
	"fmt"

	"github.com/hession/sidekick/internal/memory"
)

// ProfileTools returns the structured-profile tool set backed by profile
func ProfileTools(profile *memory.Profile) []Tool {
	return []Tool{
		&UpdateProfilePersonalTool{profile: profile},
		&AddProfileInterestTool{profile: profile},
		&AddProfilePetTool{profile: profile},
		&AddProfileFamilyTool{profile: profile},
		&AddProfileProjectTool{profile: profile},
		&UpdateProfilePreferenceTool{profile: profile},
		&AddProfileGoalTool{profile: profile},
		&AddProfileTechTool{profile: profile},
		&AddProfileNoteTool{profile: profile},
	}
}

func requireString(args map[string]any, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required parameter: %s", name)
	}
	return v, nil
}

func optionalString(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

// UpdateProfilePersonalTool sets a core identity field
type UpdateProfilePersonalTool struct {
	profile *memory.Profile
}

func (t *UpdateProfilePersonalTool) Name() string {
	return "update_profile_personal"
}

func (t *UpdateProfilePersonalTool) Description() string {
	return "Update a personal identity field in the user's profile (name, nickname, birthday, location, occupation, email)."
}

func (t *UpdateProfilePersonalTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "field",
			Type:        "string",
			Description: "Which field to set: name, nickname, birthday, location, occupation, email",
			Required:    true,
		},
		{
			Name:        "value",
			Type:        "string",
			Description: "The value to store",
			Required:    true,
		},
	}
}

func (t *UpdateProfilePersonalTool) Execute(args map[string]any) (string, error) {
	field, err := requireString(args, "field")
	if err != nil {
		return "", err
	}
	value, err := requireString(args, "value")
	if err != nil {
		return "", err
	}
	t.profile.UpdatePersonal(field, value)
	return fmt.Sprintf("Updated profile: %s = %s", field, value), nil
}

// AddProfileInterestTool records an interest or hobby
type AddProfileInterestTool struct {
	profile *memory.Profile
}

func (t *AddProfileInterestTool) Name() string {
	return "add_profile_interest"
}

func (t *AddProfileInterestTool) Description() string {
	return "Add an interest or hobby to the user's profile."
}

func (t *AddProfileInterestTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "interest",
			Type:        "string",
			Description: "The interest or hobby",
			Required:    true,
		},
	}
}

func (t *AddProfileInterestTool) Execute(args map[string]any) (string, error) {
	interest, err := requireString(args, "interest")
	if err != nil {
		return "", err
	}
	t.profile.AddInterest(interest)
	return fmt.Sprintf("Added interest: %s", interest), nil
}

// AddProfilePetTool records a pet
type AddProfilePetTool struct {
	profile *memory.Profile
}

func (t *AddProfilePetTool) Name() string {
	return "add_profile_pet"
}

func (t *AddProfilePetTool) Description() string {
	return "Add a pet to the user's profile."
}

func (t *AddProfilePetTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "name",
			Type:        "string",
			Description: "The pet's name",
			Required:    true,
		},
		{
			Name:        "type",
			Type:        "string",
			Description: "Kind of animal (dog, cat, ...)",
			Required:    true,
		},
		{
			Name:        "breed",
			Type:        "string",
			Description: "Breed, if known",
			Required:    false,
		},
		{
			Name:        "notes",
			Type:        "string",
			Description: "Anything else worth remembering about the pet",
			Required:    false,
		},
	}
}

func (t *AddProfilePetTool) Execute(args map[string]any) (string, error) {
	name, err := requireString(args, "name")
	if err != nil {
		return "", err
	}
	petType, err := requireString(args, "type")
	if err != nil {
		return "", err
	}
	t.profile.AddPet(name, petType, optionalString(args, "breed"), optionalString(args, "notes"))
	return fmt.Sprintf("Added pet: %s (%s)", name, petType), nil
}

// AddProfileFamilyTool records a family member or close relation
type AddProfileFamilyTool struct {
	profile *memory.Profile
}

func (t *AddProfileFamilyTool) Name() string {
	return "add_profile_family"
}

func (t *AddProfileFamilyTool) Description() string {
	return "Record a family member or close relation in the user's profile (e.g. partner, sister, best friend)."
}

func (t *AddProfileFamilyTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "relation",
			Type:        "string",
			Description: "The relationship (partner, mother, brother, friend, ...)",
			Required:    true,
		},
		{
			Name:        "name",
			Type:        "string",
			Description: "The person's name",
			Required:    true,
		},
	}
}

func (t *AddProfileFamilyTool) Execute(args map[string]any) (string, error) {
	relation, err := requireString(args, "relation")
	if err != nil {
		return "", err
	}
	name, err := requireString(args, "name")
	if err != nil {
		return "", err
	}
	t.profile.UpdateFamily(relation, name)
	return fmt.Sprintf("Recorded family: %s = %s", relation, name), nil
}

// AddProfileProjectTool records a project the user is working on
type AddProfileProjectTool struct {
	profile *memory.Profile
}

func (t *AddProfileProjectTool) Name() string {
	return "add_profile_project"
}

func (t *AddProfileProjectTool) Description() string {
	return "Add a project the user is working on to their profile, or update its status (active, paused, completed)."
}

func (t *AddProfileProjectTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "name",
			Type:        "string",
			Description: "The project name",
			Required:    true,
		},
		{
			Name:        "description",
			Type:        "string",
			Description: "What the project is",
			Required:    false,
		},
		{
			Name:        "status",
			Type:        "string",
			Description: "active, paused or completed (default active)",
			Required:    false,
		},
	}
}

func (t *AddProfileProjectTool) Execute(args map[string]any) (string, error) {
	name, err := requireString(args, "name")
	if err != nil {
		return "", err
	}
	description := optionalString(args, "description")
	status := optionalString(args, "status")
	if description == "" && status != "" {
		t.profile.UpdateProjectStatus(name, status)
		return fmt.Sprintf("Updated project %s: status %s", name, status), nil
	}
	t.profile.AddProject(name, description, status)
	return fmt.Sprintf("Added project: %s", name), nil
}

// UpdateProfilePreferenceTool records a preference
type UpdateProfilePreferenceTool struct {
	profile *memory.Profile
}

func (t *UpdateProfilePreferenceTool) Name() string {
	return "update_profile_preference"
}

func (t *UpdateProfilePreferenceTool) Description() string {
	return "Record a user preference (communication style, food, schedule, anything they like or dislike)."
}

func (t *UpdateProfilePreferenceTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "key",
			Type:        "string",
			Description: "Short snake_case name for the preference",
			Required:    true,
		},
		{
			Name:        "value",
			Type:        "string",
			Description: "The preference itself",
			Required:    true,
		},
	}
}

func (t *UpdateProfilePreferenceTool) Execute(args map[string]any) (string, error) {
	key, err := requireString(args, "key")
	if err != nil {
		return "", err
	}
	value, err := requireString(args, "value")
	if err != nil {
		return "", err
	}
	t.profile.UpdatePreference(key, value)
	return fmt.Sprintf("Recorded preference: %s = %s", key, value), nil
}

// AddProfileGoalTool records a goal the user is pursuing
type AddProfileGoalTool struct {
	profile *memory.Profile
}

func (t *AddProfileGoalTool) Name() string {
	return "add_profile_goal"
}

func (t *AddProfileGoalTool) Description() string {
	return "Add a goal the user is working toward to their profile."
}

func (t *AddProfileGoalTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "goal",
			Type:        "string",
			Description: "The goal",
			Required:    true,
		},
	}
}

func (t *AddProfileGoalTool) Execute(args map[string]any) (string, error) {
	goal, err := requireString(args, "goal")
	if err != nil {
		return "", err
	}
	t.profile.AddGoal(goal)
	return fmt.Sprintf("Added goal: %s", goal), nil
}

// AddProfileTechTool records a technology the user works with
type AddProfileTechTool struct {
	profile *memory.Profile
}

func (t *AddProfileTechTool) Name() string {
	return "add_profile_tech"
}

func (t *AddProfileTechTool) Description() string {
	return "Add a technology, language or tool the user works with to their profile."
}

func (t *AddProfileTechTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "technology",
			Type:        "string",
			Description: "The technology (e.g. Go, PostgreSQL, Kubernetes)",
			Required:    true,
		},
	}
}

func (t *AddProfileTechTool) Execute(args map[string]any) (string, error) {
	tech, err := requireString(args, "technology")
	if err != nil {
		return "", err
	}
	t.profile.AddTech(tech)
	return fmt.Sprintf("Added tech: %s", tech), nil
}

// AddProfileNoteTool records a dated free-form observation
type AddProfileNoteTool struct {
	profile *memory.Profile
}

func (t *AddProfileNoteTool) Name() string {
	return "add_profile_note"
}

func (t *AddProfileNoteTool) Description() string {
	return "Add a dated free-form note about the user that doesn't fit any other profile category."
}

func (t *AddProfileNoteTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "note",
			Type:        "string",
			Description: "The observation to record",
			Required:    true,
		},
	}
}

func (t *AddProfileNoteTool) Execute(args map[string]any) (string, error) {
	note, err := requireString(args, "note")
	if err != nil {
		return "", err
	}
	t.profile.AddNote(note)
	return "Note recorded.", nil
}
