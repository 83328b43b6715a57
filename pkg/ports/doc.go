/*
Package ports defines the driven ports (interfaces) for the tlisp interpreter.

These interfaces decouple the interpreter from the places automaton definitions
live, allowing the same library to be served from memory, Redis or a directory
of markdown files.

# Key Interfaces

  - DefinitionStore: Saves, loads and lists automaton definitions.
  - LibraryLoader: Read-only access to a library of definitions.
  - Watchable: Notifies when a library changes on disk.
*/
package ports
