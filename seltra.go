// Package seltra translates selected text through interchangeable backends.
//
// Seltra is the core of a select-and-translate desktop utility. An Engine
// holds exactly one active translation Backend, chosen by name from a
// Registry, and can switch to another backend at runtime without a caller
// ever observing a mixed state. Every translation returns a tagged Result
// instead of an error so a UI layer can render failures as text.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "fmt"
//
//	    "github.com/ZaguanLabs/seltra"
//	    "github.com/ZaguanLabs/seltra/provider"
//	)
//
//	func main() {
//	    engine, err := seltra.NewEngine(provider.NewRegistry(), "libretranslate",
//	        seltra.WithLanguages("en", "es"),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    result := engine.Translate(context.Background(), "Hello world")
//	    if !result.OK() {
//	        fmt.Println(result.Reason(), result.Message())
//	        return
//	    }
//	    fmt.Println(result.Text()) // Hola mundo
//	}
//
// Popup placement lives in the position package, selection polling in the
// clipboard package, and background dispatch in the worker package.
package seltra
