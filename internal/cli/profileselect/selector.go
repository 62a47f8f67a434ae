package profileselect

import (
	"fmt"
	"os"

	"github.com/idsession/idsession/internal/cli/config"
	"github.com/idsession/idsession/internal/cli/userconfig"
	"github.com/manifoldco/promptui"
)

// Prompter picks a profile interactively
type Prompter func(cfg *config.Config) (*config.Profile, error)

// ResolveProfile determines which profile to use based on the following priority:
// 1. If alias is provided (flag or IDSESSION_PROFILE), use that profile
// 2. If user has a selected profile in their local config, use that
// 3. If only one profile in project config, use that
// 4. Otherwise, prompt user to select a profile interactively
func ResolveProfile(projectConfig *config.Config, alias string) (*config.Profile, error) {
	return resolve(projectConfig, alias, PromptProfileSelection)
}

func resolve(projectConfig *config.Config, alias string, prompt Prompter) (*config.Profile, error) {
	// Priority 1: Use profile alias if provided
	if alias != "" {
		return projectConfig.GetProfileByAlias(alias)
	}

	// Priority 2: Use selected profile from user config
	selected, err := userconfig.GetSelectedProfile()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selected != "" {
		profile, err := projectConfig.GetProfileByAlias(selected)
		if err != nil {
			// Selected profile no longer exists in project config, clear it and continue
			_ = userconfig.SetSelectedProfile("")
		} else {
			return profile, nil
		}
	}

	// Priority 3: If only one profile, use it automatically
	if len(projectConfig.Profiles) == 1 {
		profile := &projectConfig.Profiles[0]
		if err := userconfig.SetSelectedProfile(profile.Alias); err != nil {
			// Don't fail if we can't save, just continue
			fmt.Fprintf(os.Stderr, "Warning: failed to save selected profile: %v\n", err)
		}
		return profile, nil
	}

	// Priority 4: Prompt user to select a profile
	profile, err := prompt(projectConfig)
	if err != nil {
		return nil, err
	}

	if err := userconfig.SetSelectedProfile(profile.Alias); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save selected profile: %v\n", err)
	}

	return profile, nil
}

// PromptProfileSelection shows an interactive prompt for the user to select a profile
func PromptProfileSelection(projectConfig *config.Config) (*config.Profile, error) {
	if len(projectConfig.Profiles) == 0 {
		return nil, fmt.Errorf("no profiles configured in %s", config.ConfigFileName)
	}

	type profileOption struct {
		Label   string
		Profile *config.Profile
	}

	options := make([]profileOption, len(projectConfig.Profiles))
	for i := range projectConfig.Profiles {
		profile := &projectConfig.Profiles[i]
		options[i] = profileOption{
			Label:   profile.Alias,
			Profile: profile,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a profile",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("profile selection cancelled: %w", err)
	}

	return options[index].Profile, nil
}
