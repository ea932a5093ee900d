package capability

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"toolcall/internal/tools"
	"toolcall/internal/util"
)

const maxSnippetBytes = 240

// DocumentIndex searches text files under the workspace line by line.
type DocumentIndex struct {
	workspace *Workspace
}

// NewDocumentIndex searches files inside w.
func NewDocumentIndex(w *Workspace) *DocumentIndex {
	return &DocumentIndex{workspace: w}
}

type lineHit struct {
	rel   string
	line  int
	text  string
	score int
}

// Search ranks lines by how many distinct query terms they contain and
// returns at most limit hits, one per file.
func (d *DocumentIndex) Search(ctx context.Context, query string, limit int) ([]tools.SearchResult, error) {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil, errors.New("query has no searchable terms")
	}
	if limit <= 0 {
		limit = 5
	}
	root := d.workspace.Root()
	best := map[string]lineHit{}

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if entry.IsDir() {
			if rel != "." && (strings.HasPrefix(entry.Name(), ".") || entry.Name() == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsDenylisted(rel) {
			return nil
		}
		if info, err := entry.Info(); err != nil || (d.workspace.maxFileBytes > 0 && info.Size() > d.workspace.maxFileBytes) {
			return nil
		}
		if hit, ok := scanFile(path, filepath.ToSlash(rel), terms); ok {
			best[hit.rel] = hit
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	hits := make([]lineHit, 0, len(best))
	for _, hit := range best {
		hits = append(hits, hit)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if hits[i].rel != hits[j].rel {
			return hits[i].rel < hits[j].rel
		}
		return hits[i].line < hits[j].line
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]tools.SearchResult, 0, len(hits))
	for _, hit := range hits {
		text, _ := util.TruncateBytes(strings.TrimSpace(hit.text), maxSnippetBytes)
		results = append(results, tools.SearchResult{
			Title:   hit.rel,
			URL:     fmt.Sprintf("file://%s#L%d", hit.rel, hit.line),
			Snippet: util.RedactSecrets(text),
		})
	}
	return results, nil
}

func scanFile(path, rel string, terms []string) (lineHit, bool) {
	file, err := os.Open(path)
	if err != nil {
		return lineHit{}, false
	}
	defer file.Close()
	if isBinary(file) {
		return lineHit{}, false
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return lineHit{}, false
	}

	var best lineHit
	nameScore := 0
	lowerRel := strings.ToLower(rel)
	for _, term := range terms {
		if strings.Contains(lowerRel, term) {
			nameScore++
		}
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		lower := strings.ToLower(scanner.Text())
		score := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > best.score {
			best = lineHit{rel: rel, line: lineNum, text: scanner.Text(), score: score}
		}
	}
	if best.score == 0 {
		return lineHit{}, false
	}
	best.score = best.score*2 + nameScore
	return best, true
}

func queryTerms(query string) []string {
	seen := map[string]struct{}{}
	var terms []string
	for _, field := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(field) < 2 {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		terms = append(terms, field)
	}
	return terms
}

func isBinary(file *os.File) bool {
	buf := make([]byte, 8000)
	n, _ := file.Read(buf)
	for _, b := range buf[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}
