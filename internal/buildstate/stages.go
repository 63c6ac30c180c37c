package buildstate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dopamine-pm/dopamine/internal/cache"
	"github.com/dopamine-pm/dopamine/internal/profile"
	"github.com/dopamine-pm/dopamine/internal/recipe"
)

// Context bundles the paths and collaborators the six build-state
// stages need. FlagDir holds source.flag/config.flag/build.flag/
// install.flag; RecipeFile, when non-empty, is the mtime anchor every
// flag must beat.
type Context struct {
	Recipe      *recipe.Recipe
	Profile     *profile.Profile
	FlagDir     string
	RecipeFile  string
	BuildDir    string
	InstallDir  string
	ArchivePath string
	Deps        map[string]recipe.DepInfo
}

func (c *Context) flag(name string) string {
	return filepath.Join(c.FlagDir, name)
}

// ProfileStage resolves the profile to use: either supplied directly,
// or loaded from <PkgDir>/.dop/profile.ini.
type ProfileStage struct {
	loggedStage
	PkgDir   string
	Supplied *profile.Profile

	loaded *profile.Profile
}

func (s *ProfileStage) Name() string              { return "profile" }
func (s *ProfileStage) Prerequisites() []Stage     { return nil }
func (s *ProfileStage) Profile() *profile.Profile  { return s.loaded }

func (s *ProfileStage) Check() (bool, error) {
	if s.Supplied != nil {
		s.loaded = s.Supplied
		return true, nil
	}
	data, err := os.ReadFile(filepath.Join(s.PkgDir, ".dop", "profile.ini"))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	p, err := profile.LoadINI(data)
	if err != nil {
		return false, err
	}
	s.loaded = p
	return true, nil
}

func (s *ProfileStage) Do() error {
	return fmt.Errorf("no profile supplied and no %s found", filepath.Join(s.PkgDir, ".dop", "profile.ini"))
}

// SourceStage makes the recipe's source directory available: in-tree
// sources are always ready; out-of-tree sources are fetched once and
// remembered in source.flag.
type SourceStage struct {
	loggedStage
	Ctx *Context
}

func (s *SourceStage) Name() string          { return "source" }
func (s *SourceStage) Prerequisites() []Stage { return nil }

func (s *SourceStage) Check() (bool, error) {
	if _, ok := s.Ctx.Recipe.InTreeSource(); ok {
		return true, nil
	}

	body, ok, err := ReadFlag(s.Ctx.flag(cache.SourceFlagName))
	if err != nil || !ok {
		return false, err
	}
	if info, statErr := os.Stat(body); statErr != nil || !info.IsDir() {
		return false, nil
	}
	return NewerThanAll(s.Ctx.flag(cache.SourceFlagName), s.Ctx.RecipeFile)
}

func (s *SourceStage) Do() error {
	src, err := s.Ctx.Recipe.Source()
	if err != nil {
		return err
	}
	return WriteFlag(s.Ctx.flag(cache.SourceFlagName), src)
}

// ConfigStage is a freshness checkpoint between source and build. The
// recipe facade has no separate configure hook; recipes that need one
// run it at the top of their build hook. This stage exists so the
// build stage's prerequisite ordering (config.flag newer than
// source.flag and the recipe file) can still be expressed and
// checked.
type ConfigStage struct {
	loggedStage
	Ctx    *Context
	Source *SourceStage
}

func (s *ConfigStage) Name() string          { return "config" }
func (s *ConfigStage) Prerequisites() []Stage { return []Stage{s.Source} }

func (s *ConfigStage) Check() (bool, error) {
	return NewerThanAll(s.Ctx.flag(cache.ConfigFlagName), s.Ctx.flag(cache.SourceFlagName), s.Ctx.RecipeFile)
}

func (s *ConfigStage) Do() error {
	return WriteFlag(s.Ctx.flag(cache.ConfigFlagName), "")
}

// BuildStage invokes the recipe's build hook.
type BuildStage struct {
	loggedStage
	Ctx    *Context
	Config *ConfigStage
}

func (s *BuildStage) Name() string          { return "build" }
func (s *BuildStage) Prerequisites() []Stage { return []Stage{s.Config} }

func (s *BuildStage) Check() (bool, error) {
	return NewerThanAll(s.Ctx.flag(cache.BuildFlagName), s.Ctx.flag(cache.ConfigFlagName), s.Ctx.RecipeFile)
}

func (s *BuildStage) Do() error {
	dirs := recipe.Dirs{Build: s.Ctx.BuildDir, Install: s.Ctx.InstallDir}
	if src, ok := s.Ctx.Recipe.InTreeSource(); ok {
		dirs.Source = src
	} else if body, ok, err := ReadFlag(s.Ctx.flag(cache.SourceFlagName)); err == nil && ok {
		dirs.Source = body
	}

	installed, err := s.Ctx.Recipe.Build(dirs, s.Ctx.Profile, s.Ctx.Deps)
	if err != nil {
		return err
	}
	if installed {
		if ok, err := Exists(s.Ctx.InstallDir); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("build reported success but %s does not exist", s.Ctx.InstallDir)
		}
	} else {
		if !s.Ctx.Recipe.HasPack() {
			return fmt.Errorf("build did not install and recipe has no pack hook")
		}
		if err := s.Ctx.Recipe.Pack(dirs, s.Ctx.Profile, s.Ctx.InstallDir); err != nil {
			return err
		}
		if ok, err := Exists(s.Ctx.InstallDir); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("pack reported success but %s does not exist", s.Ctx.InstallDir)
		}
	}

	return WriteFlag(s.Ctx.flag(cache.BuildFlagName), s.Ctx.InstallDir)
}

// InstallStage runs the recipe's patch_install hook against the
// install directory the build stage produced.
type InstallStage struct {
	loggedStage
	Ctx   *Context
	Build *BuildStage
}

func (s *InstallStage) Name() string          { return "install" }
func (s *InstallStage) Prerequisites() []Stage { return []Stage{s.Build} }

func (s *InstallStage) Check() (bool, error) {
	return NewerThanAll(s.Ctx.flag(cache.InstallFlagName), s.Ctx.flag(cache.BuildFlagName), s.Ctx.RecipeFile)
}

func (s *InstallStage) Do() error {
	if err := s.Ctx.Recipe.PatchInstall(s.Ctx.Profile, s.Ctx.InstallDir); err != nil {
		return err
	}
	return WriteFlag(s.Ctx.flag(cache.InstallFlagName), s.Ctx.InstallDir)
}

// ArchiveStage packs the install directory via the recipe's pack hook.
// Recipes without a pack hook have nothing for this stage to do.
type ArchiveStage struct {
	loggedStage
	Ctx     *Context
	Install *InstallStage
}

func (s *ArchiveStage) Name() string          { return "archive" }
func (s *ArchiveStage) Prerequisites() []Stage { return []Stage{s.Install} }

func (s *ArchiveStage) Check() (bool, error) {
	if s.Ctx.ArchivePath == "" {
		return false, fmt.Errorf("no archive path configured")
	}
	return NewerThanAll(s.Ctx.ArchivePath, s.Ctx.flag(cache.InstallFlagName), s.Ctx.RecipeFile)
}

func (s *ArchiveStage) Do() error {
	if !s.Ctx.Recipe.HasPack() {
		return fmt.Errorf("recipe has no pack hook, nothing to archive")
	}
	dirs := recipe.Dirs{Build: s.Ctx.BuildDir, Install: s.Ctx.InstallDir}
	return s.Ctx.Recipe.Pack(dirs, s.Ctx.Profile, s.Ctx.ArchivePath)
}

// EnforcedStage wraps another stage so Do always fails with
// StateNotReached instead of performing work, for commands that
// require a prior stage to already be complete out-of-band.
type EnforcedStage struct {
	Stage
	Message string
}

func (e *EnforcedStage) Do() error {
	return &StateNotReached{Stage: e.Stage.Name(), Message: e.Message}
}
