package topics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadGroupsItemsByTopic(t *testing.T) {
	input := `topic,item
Pizza toppings, Mushroom
Pizza toppings,Pineapple
Breakfast,Toast
pizza toppings,Olive
Pizza toppings,mushroom
,Orphan
Breakfast,
Breakfast,Eggs
`
	seeds, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []Seed{
		{Name: "Pizza toppings", Items: []string{"Mushroom", "Pineapple", "Olive"}},
		{Name: "Breakfast", Items: []string{"Toast", "Eggs"}},
	}, seeds)
}

func TestReadWithoutHeader(t *testing.T) {
	seeds, err := Read(strings.NewReader("Colors,Red\nColors,Blue\n"))
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	require.Equal(t, []string{"Red", "Blue"}, seeds[0].Items)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.csv")
	require.NoError(t, os.WriteFile(path, []byte("Seasons,Winter\nSeasons,Summer\n"), 0o644))

	seeds, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Seasons", seeds[0].Name)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
