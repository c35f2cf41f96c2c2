package moderation

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"

	"github.com/samber/lo"
)

//go:embed words/*
var wordsFolder embed.FS

// LoadWordlists reads every embedded wordlist, one word per line, and
// returns the deduplicated union along with the list names.
func LoadWordlists() ([]string, []string, error) {
	entries, err := fs.ReadDir(wordsFolder, "words")
	if err != nil {
		return nil, nil, err
	}

	var words []string
	var lists []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		lists = append(lists, strings.TrimSuffix(entry.Name(), ".txt"))

		file, err := wordsFolder.Open("words/" + entry.Name())
		if err != nil {
			return nil, nil, err
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word != "" {
				words = append(words, word)
			}
		}
		if err := scanner.Err(); err != nil {
			_ = file.Close()
			return nil, nil, err
		}
		_ = file.Close()
	}
	return lo.Uniq(words), lists, nil
}
