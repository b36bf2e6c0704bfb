package phishingrod

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/utils/errkit"
	fileutil "github.com/projectdiscovery/utils/file"
	sliceutil "github.com/projectdiscovery/utils/slice"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CommentMarker anywhere in a watchlist line discards the line
const CommentMarker = "#"

var ErrWatchlistMissing = errkit.New("watchlist file not found")

// LoadWatchlist reads and normalizes the watchlist at path
func LoadWatchlist(path string) ([]string, error) {
	if !fileutil.FileExists(path) {
		return nil, fmt.Errorf("%w: %v", ErrWatchlistMissing, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWatchlist(f)
}

// ReadWatchlist returns the normalized, deduplicated phrases of r in input order
func ReadWatchlist(r io.Reader) ([]string, error) {
	var phrases []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		phrase, ok := NormalizePhrase(scanner.Text())
		if !ok {
			continue
		}
		phrases = append(phrases, phrase)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	dedupe := sliceutil.Dedupe(phrases)
	if len(dedupe) != len(phrases) {
		gologger.Warning().Msgf("%v duplicate watchlist entries found. purging them..", len(phrases)-len(dedupe))
	}
	return dedupe, nil
}

// NormalizePhrase lowercases line, removes all whitespace and folds it to
// ASCII. Comment lines and lines left blank are rejected.
func NormalizePhrase(line string) (string, bool) {
	if strings.Contains(line, CommentMarker) {
		return "", false
	}
	phrase := strings.Join(strings.Fields(line), "")
	if phrase == "" {
		return "", false
	}
	phrase = foldASCII(strings.ToLower(phrase))
	if phrase == "" {
		return "", false
	}
	return phrase, true
}

// foldASCII strips diacritics (é -> e) and drops whatever is still non-ASCII
func foldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	return b.String()
}
