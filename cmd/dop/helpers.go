package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dopamine-pm/dopamine/internal/cache"
	"github.com/dopamine-pm/dopamine/internal/cacherepo"
	"github.com/dopamine-pm/dopamine/internal/config"
	"github.com/dopamine-pm/dopamine/internal/log"
	"github.com/dopamine-pm/dopamine/internal/profile"
	"github.com/dopamine-pm/dopamine/internal/recipe"
	"github.com/dopamine-pm/dopamine/internal/registryclient"
)

// loadConfig resolves the ambient configuration, honoring --offline on
// top of whatever DOP_OFFLINE already set.
func loadConfig() (*config.Config, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return nil, err
	}
	if offlineFlag {
		cfg.Offline = true
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildRepo wires config.Config into the three-tier cache-repo chain:
// CachedRepo backed by a cache.Layout and, unless offline, a
// registryclient.Client with a manifest-cache fallback sidecar.
func buildRepo(cfg *config.Config) cacherepo.Repo {
	layout := cache.New(cfg.CacheDir)
	interp := recipe.TOMLInterpreter{}

	if cfg.Offline {
		return cacherepo.NewCachedRepo(layout, interp, nil, true)
	}

	client := registryclient.NewWithTimeout(cfg.RegistryURL, cfg.APITimeout)
	client.Manifest = registryclient.NewManifestCache(filepath.Join(cfg.HomeDir, "manifest.toml"))
	return cacherepo.NewCachedRepo(layout, interp, client, false)
}

// openRootRecipe reads and parses a recipe file, returning an open,
// validated Recipe facade. The caller must Release it.
func openRootRecipe(path string) (*recipe.Recipe, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dop: reading %s: %w", path, err)
	}

	h, err := recipe.TOMLInterpreter{}.Parse(content, path)
	if err != nil {
		return nil, err
	}

	r := recipe.Open(h)
	if err := r.Validate(); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

// loadOrDetectProfile reads an INI profile from iniPath, or, when
// iniPath is empty, autodetects the host and every recognized
// language's compiler, skipping (and warning about) any that aren't
// found on PATH rather than failing outright.
func loadOrDetectProfile(iniPath, basename string) (*profile.Profile, error) {
	if iniPath != "" {
		data, err := os.ReadFile(iniPath)
		if err != nil {
			return nil, fmt.Errorf("dop: reading profile %s: %w", iniPath, err)
		}
		return profile.LoadINI(data)
	}
	return detectProfile(basename)
}

func detectProfile(basename string) (*profile.Profile, error) {
	host, err := profile.DetectHost()
	if err != nil {
		return nil, err
	}

	var compilers []profile.Compiler
	for _, lang := range []profile.Lang{profile.LangC, profile.LangCpp, profile.LangD} {
		c, err := profile.DetectCompiler(lang, host)
		if err != nil {
			log.Default().Warn("compiler not found", "language", lang, "error", err)
			continue
		}
		compilers = append(compilers, c)
	}

	return profile.New(basename, host, profile.BuildTypeRelease, compilers)
}
