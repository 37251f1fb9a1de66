// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	// InterpreterNotFoundId is raised when no Python interpreter can be resolved.
	InterpreterNotFoundId Id = iota + 1
	// FingerprintIOFailedId is raised when the fingerprint file cannot be read or written.
	FingerprintIOFailedId
	// TeardownFailedId is raised when the environment directory cannot be removed.
	TeardownFailedId
	// EnvironmentCreateFailedId is raised when the environment creation tool fails.
	EnvironmentCreateFailedId
	// InstallFailedId is raised when the package installer fails.
	InstallFailedId
	// ImportVerificationFailedId is raised when required modules cannot be imported.
	ImportVerificationFailedId
	// ConfigLoadFailedId is raised when a configuration source is invalid.
	ConfigLoadFailedId
	// ProgramNotFoundId is raised when the program handed to "run" cannot start.
	ProgramNotFoundId
	// ManifestWatchFailedId is raised when the manifest watcher cannot start.
	ManifestWatchFailedId
)

type (
	// Id identifies a catalog entry.
	//
	//nolint:revive
	Id int

	// MarkdownMsg is help text rendered with glamour.
	MarkdownMsg string

	// Issue is a catalog entry with markdown guidance for one failure class.
	Issue struct {
		id    Id
		mdMsg MarkdownMsg
	}
)

var (
	render = glamour.Render

	interpreterNotFoundIssue = &Issue{
		id: InterpreterNotFoundId,
		mdMsg: `
# No Python interpreter found!

venvguard needs an interpreter to build the environment with ` + "`-m venv`" + `.

## Things you can try:
- Install Python 3 and make sure it is on your PATH
- Point venvguard at a specific interpreter:
~~~
$ venvguard --interpreter /usr/bin/python3 bootstrap
~~~
- Or set it in venvguard.cue:
~~~cue
interpreter: "/usr/bin/python3"
~~~`,
	}

	fingerprintIOFailedIssue = &Issue{
		id: FingerprintIOFailedId,
		mdMsg: `
# Could not access the fingerprint file!

The fingerprint file records which system the environment was built for.
It lives inside the environment directory.

## Things you can try:
- Check the permissions of the environment directory
- Make sure the environment creation step succeeded (see the output above)
- Delete the environment directory and run venvguard again`,
	}

	teardownFailedIssue = &Issue{
		id: TeardownFailedId,
		mdMsg: `
# Could not remove the environment directory!

The environment no longer matches this system and has to be rebuilt.

## Things you can try:
- Close programs that still use files inside the environment
- Remove the directory by hand and run venvguard again`,
	}

	environmentCreateFailedIssue = &Issue{
		id: EnvironmentCreateFailedId,
		mdMsg: `
# Environment creation failed!

The interpreter's venv module exited with an error.

## Things you can try:
- Some distributions ship venv separately:
~~~
$ sudo apt install python3-venv
~~~
- Run the creation step by hand to see the full output:
~~~
$ python3 -m venv venv
~~~`,
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# Dependency installation failed!

The package installer exited with an error while processing the manifest.

## Things you can try:
- Check the manifest for typos in requirement names
- Check network access to the package index
- Run with verbose mode for the full installer output:
~~~
$ venvguard --verbose bootstrap
~~~`,
	}

	importVerificationFailedIssue = &Issue{
		id: ImportVerificationFailedId,
		mdMsg: `
# Required modules are missing!

One or more modules could not be imported by the environment's interpreter,
even after reinstalling the manifest.

## Things you can try:
- Make sure every verified module is provided by a requirement in the manifest
- Adjust the list of verified modules in venvguard.cue:
~~~cue
verify: modules: ["psycopg2", "serial"]
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check venvguard.cue against the schema printed by:
~~~
$ venvguard config show
~~~
- Check the [tool.venvguard] table in pyproject.toml
- Unset VENVGUARD_* environment variables you do not need`,
	}

	programNotFoundIssue = &Issue{
		id: ProgramNotFoundId,
		mdMsg: `
# Program could not be started!

The program is looked up with the environment's executables directory first
on PATH.

## Things you can try:
- Check the program name for typos
- Make sure the package that provides it is in the manifest`,
	}

	manifestWatchFailedIssue = &Issue{
		id: ManifestWatchFailedId,
		mdMsg: `
# Could not watch the manifest!

## Things you can try:
- Check that the manifest directory exists and is readable
- On Linux, raise fs.inotify.max_user_watches if the limit is exhausted`,
	}

	issues = map[Id]*Issue{
		interpreterNotFoundIssue.Id():      interpreterNotFoundIssue,
		fingerprintIOFailedIssue.Id():      fingerprintIOFailedIssue,
		teardownFailedIssue.Id():           teardownFailedIssue,
		environmentCreateFailedIssue.Id():  environmentCreateFailedIssue,
		installFailedIssue.Id():            installFailedIssue,
		importVerificationFailedIssue.Id(): importVerificationFailedIssue,
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		programNotFoundIssue.Id():          programNotFoundIssue,
		manifestWatchFailedIssue.Id():      manifestWatchFailedIssue,
	}
)

// Id returns the catalog identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw markdown help text.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the help text for a terminal using the given glamour style
// ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

// Values returns all catalog entries ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, is := range issues {
		out = append(out, is)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
