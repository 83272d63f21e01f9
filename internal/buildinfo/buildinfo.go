package buildinfo

const (
	ProjectName = "tkwin"
	GithubURL   = "https://github.com/tkwin-games/tkwin"
)

const Graffiti = `
 _   _            _
| |_| | ____ __ _(_)_ __
| __| |/ /\ \ /\ / / | '_ \
| |_|   <  \ V  V /| | | | |
 \__|_|\_\  \_/\_/ |_|_| |_|
`

// GreetingCLI expects the project name, version and repository url.
const GreetingCLI = `
%s %s
sparring scoreboard and tournament desk
%s

type "help" to list commands
`
