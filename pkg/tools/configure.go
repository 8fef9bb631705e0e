package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/driftlock/browsermux/pkg/browser"
	"github.com/driftlock/browsermux/pkg/config"
	"github.com/driftlock/browsermux/pkg/response"
)

// ConfigureTool applies partial browser configuration changes to a session.
// The session recycles its context so the next tab picks the changes up.
type ConfigureTool struct{}

// NewConfigureTool creates a new configuration tool.
func NewConfigureTool() *ConfigureTool {
	return &ConfigureTool{}
}

// Name returns the tool name.
func (t *ConfigureTool) Name() string {
	return "browser_configure"
}

// Description returns the tool description.
func (t *ConfigureTool) Description() string {
	return "Update the browser configuration of a session: device profile, viewport, " +
		"user agent, locale, timezone, color scheme, headless mode, and origin " +
		"allow/block lists. Only the provided fields change."
}

// Execute merges the provided fields into the session configuration.
func (t *ConfigureTool) Execute(ctx context.Context, session *browser.Session, rb *response.Builder, args Arguments) error {
	var changes config.BrowserConfig
	var applied []string

	if device := args.String("device"); device != "" {
		changes.Device = device
		applied = append(applied, "device="+device)
	}
	if ua := args.String("user_agent"); ua != "" {
		changes.UserAgent = ua
		applied = append(applied, "user_agent")
	}
	if locale := args.String("locale"); locale != "" {
		changes.Locale = locale
		applied = append(applied, "locale="+locale)
	}
	if tz := args.String("timezone"); tz != "" {
		changes.TimezoneID = tz
		applied = append(applied, "timezone="+tz)
	}
	if scheme := args.String("color_scheme"); scheme != "" {
		changes.ColorScheme = scheme
		applied = append(applied, "color_scheme="+scheme)
	}
	if _, ok := args["headless"]; ok {
		headless := args.Bool("headless")
		changes.Headless = &headless
		applied = append(applied, fmt.Sprintf("headless=%t", headless))
	}
	if w, ok := args.Int("width"); ok {
		h, hok := args.Int("height")
		if !hok {
			return fmt.Errorf("viewport requires both width and height")
		}
		changes.Viewport = &config.Viewport{Width: w, Height: h}
		applied = append(applied, fmt.Sprintf("viewport=%dx%d", w, h))
	}
	if origins := splitOrigins(args.String("allowed_origins")); len(origins) > 0 {
		changes.AllowedOrigins = origins
		applied = append(applied, "allowed_origins")
	}
	if origins := splitOrigins(args.String("blocked_origins")); len(origins) > 0 {
		changes.BlockedOrigins = origins
		applied = append(applied, "blocked_origins")
	}

	if len(applied) == 0 {
		return fmt.Errorf("no configuration changes provided")
	}
	if err := session.UpdateBrowserConfig(ctx, changes); err != nil {
		return fmt.Errorf("failed to update browser configuration: %w", err)
	}
	rb.AddResultf("Updated browser configuration (%s), the context will be recreated on next use",
		strings.Join(applied, ", "))
	return nil
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
