package main

// ---------------------------------------------------------------------------
// cmd_completions.go — shell completion scripts
// ---------------------------------------------------------------------------

import (
	"fmt"
	"os"
	"strings"
)

func cmdCompletions(args []string) {
	if len(args) == 0 {
		cmdHelp("completions")
		os.Exit(0)
	}

	shell := strings.ToLower(args[0])
	switch shell {
	case "bash":
		fmt.Print(bashCompletions())
	case "zsh":
		fmt.Print(zshCompletions())
	case "fish":
		fmt.Print(fishCompletions())
	case "powershell", "pwsh":
		fmt.Print(powershellCompletions())
	default:
		errorf("unsupported shell %q — supported: bash, zsh, fish, powershell", shell)
	}
}

func bashCompletions() string {
	return `# eventscout bash completions
# Add to ~/.bashrc: source <(eventscout completions bash)

_eventscout_completions() {
    local cur prev commands
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    commands="discover scan serve stop status catalog detectors config check demo completions version help"

    case "${prev}" in
        eventscout)
            COMPREPLY=( $(compgen -W "${commands}" -- "${cur}") )
            return 0
            ;;
        catalog)
            COMPREPLY=( $(compgen -W "list show channels --output --format" -- "${cur}") )
            return 0
            ;;
        config)
            COMPREPLY=( $(compgen -W "init show validate set --config --format" -- "${cur}") )
            return 0
            ;;
        completions)
            COMPREPLY=( $(compgen -W "bash zsh fish powershell" -- "${cur}") )
            return 0
            ;;
        help)
            COMPREPLY=( $(compgen -W "${commands}" -- "${cur}") )
            return 0
            ;;
        --format)
            COMPREPLY=( $(compgen -W "table json csv yaml text" -- "${cur}") )
            return 0
            ;;
        --log-level)
            COMPREPLY=( $(compgen -W "debug info warn error" -- "${cur}") )
            return 0
            ;;
        --detectors)
            COMPREPLY=( $(compgen -W "kafka rabbitmq aws-sns aws-sqs aws-eventbridge ibm-mq generic" -- "${cur}") )
            return 0
            ;;
        --config|--output)
            COMPREPLY=( $(compgen -f -- "${cur}") )
            return 0
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "--config --output --format --repos --langs --workers --discover-only --incremental --api-key --host --port --help" -- "${cur}") )
        return 0
    fi
}

complete -F _eventscout_completions eventscout
`
}

func zshCompletions() string {
	return `#compdef eventscout
# eventscout zsh completions
# Add to ~/.zshrc: source <(eventscout completions zsh)

_eventscout() {
    local -a commands
    commands=(
        'discover:Run one discovery pass against the code-search collaborator'
        'scan:Discover events in a local source tree'
        'serve:Run the catalog service'
        'stop:Gracefully stop a running instance'
        'status:Show status of a running instance'
        'catalog:List services, show a spec, or look up a channel'
        'detectors:List broker/framework detectors'
        'config:Initialize, show, validate, or set configuration'
        'check:Run pre-flight diagnostics'
        'demo:Run the built-in fixture through the full pipeline'
        'completions:Generate shell completion scripts'
        'version:Print version and build info'
        'help:Show help for a command'
    )

    _arguments -C \
        '1:command:->command' \
        '*::arg:->args'

    case "$state" in
        command)
            _describe 'command' commands
            ;;
        args)
            case "${words[1]}" in
                catalog)
                    local -a cat_cmds
                    cat_cmds=('list:List catalog services' 'show:Show one AsyncAPI document' 'channels:Look up channel producers')
                    _describe 'subcommand' cat_cmds
                    ;;
                config)
                    local -a cfg_cmds
                    cfg_cmds=('init:Write a starter config' 'show:Print the config' 'validate:Validate the config' 'set:Set a config value')
                    _describe 'subcommand' cfg_cmds
                    ;;
                completions)
                    _values 'shell' bash zsh fish powershell
                    ;;
                help)
                    _describe 'command' commands
                    ;;
            esac
            ;;
    esac
}

_eventscout "$@"
`
}

func fishCompletions() string {
	return `# eventscout fish completions
# Add: eventscout completions fish | source

complete -c eventscout -f

# Main commands
complete -c eventscout -n '__fish_use_subcommand' -a discover -d 'Run one discovery pass'
complete -c eventscout -n '__fish_use_subcommand' -a scan -d 'Scan a local source tree'
complete -c eventscout -n '__fish_use_subcommand' -a serve -d 'Run the catalog service'
complete -c eventscout -n '__fish_use_subcommand' -a stop -d 'Stop a running instance'
complete -c eventscout -n '__fish_use_subcommand' -a status -d 'Show instance status'
complete -c eventscout -n '__fish_use_subcommand' -a catalog -d 'Inspect the catalog'
complete -c eventscout -n '__fish_use_subcommand' -a detectors -d 'List detectors'
complete -c eventscout -n '__fish_use_subcommand' -a config -d 'Manage configuration'
complete -c eventscout -n '__fish_use_subcommand' -a check -d 'Pre-flight diagnostics'
complete -c eventscout -n '__fish_use_subcommand' -a demo -d 'Run the built-in fixture'
complete -c eventscout -n '__fish_use_subcommand' -a completions -d 'Shell completions'
complete -c eventscout -n '__fish_use_subcommand' -a version -d 'Print version'
complete -c eventscout -n '__fish_use_subcommand' -a help -d 'Show help'

# catalog subcommands
complete -c eventscout -n '__fish_seen_subcommand_from catalog' -a 'list show channels'

# config subcommands
complete -c eventscout -n '__fish_seen_subcommand_from config' -a 'init show validate set'

# completions subcommands
complete -c eventscout -n '__fish_seen_subcommand_from completions' -a 'bash zsh fish powershell'

# Global flags
complete -c eventscout -l config -d 'Config file path' -r -F
complete -c eventscout -l output -d 'Catalog directory' -r -F
complete -c eventscout -l format -d 'Output format' -ra 'table json csv yaml text'
complete -c eventscout -l api-key -d 'API key' -r
complete -c eventscout -l host -d 'API host' -r
complete -c eventscout -l port -d 'API port' -r
complete -c eventscout -l repos -d 'Repository filters' -r
complete -c eventscout -l langs -d 'Language filters' -r
complete -c eventscout -l workers -d 'Query workers' -r
complete -c eventscout -l discover-only -d 'Report events, write nothing'
complete -c eventscout -l incremental -d 'Merge into the existing catalog'
complete -c eventscout -l help -d 'Show help'
`
}

func powershellCompletions() string {
	return `# eventscout PowerShell completions
# Add: eventscout completions powershell | Out-String | Invoke-Expression

Register-ArgumentCompleter -Native -CommandName eventscout -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $commands = @{
        'discover' = 'Run one discovery pass'
        'scan' = 'Scan a local source tree'
        'serve' = 'Run the catalog service'
        'stop' = 'Stop a running instance'
        'status' = 'Show instance status'
        'catalog' = 'Inspect the catalog'
        'detectors' = 'List detectors'
        'config' = 'Manage configuration'
        'check' = 'Pre-flight diagnostics'
        'demo' = 'Run the built-in fixture'
        'completions' = 'Shell completions'
        'version' = 'Print version'
        'help' = 'Show help'
    }

    $elements = $commandAst.CommandElements
    $command = if ($elements.Count -gt 1) { $elements[1].Value } else { '' }

    if ($elements.Count -le 2) {
        $commands.GetEnumerator() | Where-Object { $_.Key -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_.Key, $_.Key, 'ParameterValue', $_.Value)
        }
    } else {
        switch ($command) {
            'catalog' {
                @('list', 'show', 'channels') | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                    [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                }
            }
            'config' {
                @('init', 'show', 'validate', 'set') | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                    [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                }
            }
            'completions' {
                @('bash', 'zsh', 'fish', 'powershell') | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
                    [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
                }
            }
        }
    }
}
`
}
