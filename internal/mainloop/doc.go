// Package mainloop provides the single-threaded UI context.
//
// Everything that touches front-end state runs here: user intents,
// completions of background work (posted back with Post) and the periodic
// engine tick. Later posts run later, so the last completion to arrive wins.
package mainloop
