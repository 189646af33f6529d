package beatprints

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// SetupReport is the diagnostic produced by TestSetup.
type SetupReport struct {
	Success                     bool             `json:"success"`
	ComponentsInitialized       *ComponentStatus `json:"components_initialized,omitempty"`
	SpotifyCredentialsAvailable *bool            `json:"spotify_credentials_available,omitempty"`
	EnvironmentVariables        *EnvStatus       `json:"environment_variables,omitempty"`
	Note                        string           `json:"note,omitempty"`
	Error                       string           `json:"error,omitempty"`
}

// ComponentStatus reports how each collaborator's construction went.
type ComponentStatus struct {
	Lyrics  string `json:"lyrics"`
	Spotify string `json:"spotify"`
	Poster  string `json:"poster"`
}

// EnvStatus reports whether each credential is configured.
type EnvStatus struct {
	SpotifyClientID     string `json:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `json:"SPOTIFY_CLIENT_SECRET"`
}

func setOrNot(s string) string {
	if s != "" {
		return "set"
	}
	return "not set"
}

// CheckSetup constructs the lyrics client and the metadata source to confirm
// the integration is reachable. The renderer is skipped since it writes to
// disk. Every report carries the per-component status, credential
// availability and environment status; a construction fault additionally
// sets success to false and fills error. Panics produce a bare failed report.
func (o *Orchestrator) CheckSetup(ctx context.Context) (report SetupReport) {
	defer func() {
		if r := recover(); r != nil {
			report = SetupReport{Error: fmt.Sprintf("Setup test failed: panic: %v", r)}
		}
	}()

	available := o.creds.Present()
	report = SetupReport{
		Success: true,
		ComponentsInitialized: &ComponentStatus{
			Lyrics:  "success",
			Spotify: "success",
			Poster:  "skipped (writes to disk)",
		},
		SpotifyCredentialsAvailable: &available,
		EnvironmentVariables: &EnvStatus{
			SpotifyClientID:     setOrNot(o.creds.ClientID),
			SpotifyClientSecret: setOrNot(o.creds.ClientSecret),
		},
		Note: "Lyrics and Spotify components initialized; poster renderer not exercised",
	}
	fail := func(err error) {
		if report.Success {
			report.Success = false
			report.Error = fmt.Sprintf("Setup test failed: %v", err)
			report.Note = ""
		}
	}

	if _, err := o.factory.Lyrics(ctx); err != nil {
		log.WithError(err).Warn("setup: lyrics client")
		report.ComponentsInitialized.Lyrics = "failed: " + err.Error()
		fail(err)
	}
	if _, err := o.factory.MetadataSource(ctx, o.creds); err != nil {
		log.WithError(err).Warn("setup: metadata source")
		report.ComponentsInitialized.Spotify = "failed: " + err.Error()
		fail(err)
	}
	return report
}

// TestSetup returns CheckSetup's report as two-space indented JSON.
func (o *Orchestrator) TestSetup(ctx context.Context) string {
	return Encode(o.CheckSetup(ctx))
}
