// Command avatarstudio builds talking-avatar videos from the terminal.
//
// A project is assembled one wizard step at a time (avatar, script, voice,
// video settings) either through individual subcommands or the interactive
// `avatarstudio wizard`, persisted in the local data directory between runs,
// and submitted to the remote generation service with `avatarstudio
// generate`, which follows the job until the video is ready.
package main
