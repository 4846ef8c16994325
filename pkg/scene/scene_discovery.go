package scene

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-bvh-pathtracer/pkg/envmap"
)

// SceneInfo describes a scene that can be rendered
type SceneInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`               // "builtin" or "file"
	FilePath    string `json:"filePath,omitempty"` // file scenes only
}

type builtin struct {
	info  SceneInfo
	build func(sky *envmap.Map) (*Scene, error)
}

var builtins = []builtin{
	{
		info: SceneInfo{
			ID:          "default",
			Name:        "Default Scene",
			Description: "Spheres of every material kind on a checkered floor",
			Type:        "builtin",
		},
		build: Default,
	},
	{
		info: SceneInfo{
			ID:          "grid",
			Name:        "Sphere Grid",
			Description: fmt.Sprintf("%dx%d grid of glossy OKLCH-colored spheres", DefaultGridSize, DefaultGridSize),
			Type:        "builtin",
		},
		build: func(sky *envmap.Map) (*Scene, error) {
			return SphereGrid(sky, DefaultGridSize)
		},
	},
}

// Builtins lists the scenes compiled into the renderer
func Builtins() []SceneInfo {
	infos := make([]SceneInfo, len(builtins))
	for i, b := range builtins {
		infos[i] = b.info
	}
	return infos
}

// IsBuiltin reports whether id names a built-in scene
func IsBuiltin(id string) bool {
	for _, b := range builtins {
		if b.info.ID == id {
			return true
		}
	}
	return false
}

// NewBuiltin builds the built-in scene id lit by sky
func NewBuiltin(id string, sky *envmap.Map) (*Scene, error) {
	for _, b := range builtins {
		if b.info.ID == id {
			return b.build(sky)
		}
	}
	return nil, fmt.Errorf("scene: unknown built-in scene %q", id)
}

// LoadBuiltin loads the sky at skyLocation and builds the built-in scene id
func LoadBuiltin(ctx context.Context, id, skyLocation string) (*Scene, error) {
	if !IsBuiltin(id) {
		return nil, fmt.Errorf("scene: unknown built-in scene %q", id)
	}
	sky, err := LoadSky(ctx, skyLocation, envmap.DefaultWidth, envmap.DefaultHeight, nil)
	if err != nil {
		return nil, err
	}
	return NewBuiltin(id, sky)
}

// ListSceneFiles returns the JSON scenes in dir sorted by name. A missing
// directory yields an empty list. Files that fail to parse are skipped.
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := make([]SceneInfo, 0, len(files))
	for _, path := range files {
		info, err := ReadSceneInfo(path)
		if err != nil {
			logger.Warningf("skipping %s: %v", path, err)
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})
	return scenes, nil
}

// ReadSceneInfo parses the scene file at path for its name and
// description. The name falls back to the title-cased file name.
func ReadSceneInfo(path string) (SceneInfo, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	info := SceneInfo{
		ID:       "file:" + base,
		Name:     titleCase(base),
		Type:     "file",
		FilePath: path,
	}

	file, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer file.Close()

	cfg, err := ParseConfig(file)
	if err != nil {
		return info, err
	}
	if cfg.Name != "" {
		info.Name = cfg.Name
	}
	info.Description = cfg.Description
	return info, nil
}

// ListScenes returns the built-in scenes followed by the files in dir
func ListScenes(dir string) ([]SceneInfo, error) {
	files, err := ListSceneFiles(dir)
	if err != nil {
		return nil, err
	}
	return append(Builtins(), files...), nil
}

// titleCase turns a file name such as "cornell-empty" into "Cornell Empty"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
