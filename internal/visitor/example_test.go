package visitor_test

import (
	"fmt"
	"strings"

	"github.com/CageChen/fileexplorer/internal/fs"
	"github.com/CageChen/fileexplorer/internal/visitor"
)

func ExampleVisitor_Run() {
	lister := fs.NewMemFS().
		AddFile("notes.md", "# Notes").
		AddDir("archive").
		AddFile("todo.txt", "milk")

	v := visitor.New("", lister)
	v.OnStart(func() { fmt.Println("started") })
	v.OnFinish(func() { fmt.Println("finished") })
	v.OnDirectoryFound(func(e *visitor.ItemEvent) { fmt.Println("directory:", e.Entry.Name) })
	v.OnFileFound(func(e *visitor.ItemEvent) {
		fmt.Println("file:", e.Entry.Name)
		e.Exclude = strings.HasSuffix(e.Entry.Name, ".txt")
	})

	for entry := range v.Run() {
		fmt.Println("yielded:", entry.Name)
	}

	// Output:
	// started
	// file: notes.md
	// yielded: notes.md
	// directory: archive
	// yielded: archive
	// file: todo.txt
	// finished
}
