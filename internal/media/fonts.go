package media

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// FontPool is a directory of TTF/OTF font files. One font is picked per
// scenario when consistent typography is enabled, or per slide otherwise.
type FontPool struct {
	dir   string
	fonts []string
}

// OpenFontPool lists the font files in a directory. An empty pool is not an
// error; callers fall back to default rendering.
func OpenFontPool(dir string) (*FontPool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &FontPool{dir: dir}, nil
		}
		return nil, fmt.Errorf("open font pool %s: %w", dir, err)
	}

	fonts := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if e.IsDir() {
			return "", false
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		return e.Name(), ext == ".ttf" || ext == ".otf"
	})
	sort.Strings(fonts)

	return &FontPool{dir: dir, fonts: fonts}, nil
}

// Empty reports whether the pool has no fonts.
func (p *FontPool) Empty() bool { return len(p.fonts) == 0 }

// Pick returns the path of a random font from the pool, or "" when empty.
func (p *FontPool) Pick(rng *rand.Rand) string {
	if len(p.fonts) == 0 {
		return ""
	}
	return filepath.Join(p.dir, p.fonts[rng.Intn(len(p.fonts))])
}

// PickEmoji returns the path of an emoji-capable font, preferring Noto Emoji
// variants, or "" when the pool is empty.
func (p *FontPool) PickEmoji() string {
	for _, name := range p.fonts {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "noto") && strings.Contains(lower, "emoji") {
			return filepath.Join(p.dir, name)
		}
	}
	if len(p.fonts) > 0 {
		return filepath.Join(p.dir, p.fonts[0])
	}
	return ""
}
