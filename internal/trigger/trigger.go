// Package trigger identifies what caused the current build by inspecting
// the environment of the surrounding CI system. Outside of CI the context
// falls back to a local manual run.
package trigger

import "os"

// System names the environment the build runs under.
type System string

const (
	SystemGitHub System = "github"
	SystemGitLab System = "gitlab"
	SystemLocal  System = "local"
)

// Event is the normalized cause of a build across CI systems.
type Event string

const (
	EventPush        Event = "push"
	EventPullRequest Event = "pull_request"
	EventSchedule    Event = "schedule"
	EventManual      Event = "manual"
)

// Context describes the trigger of a single build run.
type Context struct {
	System     System
	Event      Event
	Branch     string
	Commit     string
	Repository string
	RunID      string
	Actor      string
	// PullRequest holds the PR/MR number when Event is EventPullRequest.
	PullRequest string
}

// Detect reads the process environment and returns the trigger context.
func Detect() Context {
	return detectFrom(os.Getenv)
}

func detectFrom(getenv func(string) string) Context {
	switch {
	case getenv("GITHUB_ACTIONS") == "true":
		return githubContext(getenv)
	case getenv("GITLAB_CI") == "true":
		return gitlabContext(getenv)
	default:
		return localContext(getenv)
	}
}

func githubContext(getenv func(string) string) Context {
	c := Context{
		System:     SystemGitHub,
		Commit:     getenv("GITHUB_SHA"),
		Repository: getenv("GITHUB_REPOSITORY"),
		RunID:      getenv("GITHUB_RUN_ID"),
		Actor:      getenv("GITHUB_ACTOR"),
	}
	switch getenv("GITHUB_EVENT_NAME") {
	case "push":
		c.Event = EventPush
		c.Branch = getenv("GITHUB_REF_NAME")
	case "pull_request", "pull_request_target":
		c.Event = EventPullRequest
		// On PR events the ref name is "<num>/merge"; the source branch
		// lives in GITHUB_HEAD_REF.
		c.Branch = getenv("GITHUB_HEAD_REF")
		c.PullRequest = prNumberFromRef(getenv("GITHUB_REF_NAME"))
	case "schedule":
		c.Event = EventSchedule
		c.Branch = getenv("GITHUB_REF_NAME")
	default:
		c.Event = EventManual
		c.Branch = getenv("GITHUB_REF_NAME")
	}
	return c
}

func gitlabContext(getenv func(string) string) Context {
	c := Context{
		System:     SystemGitLab,
		Commit:     getenv("CI_COMMIT_SHA"),
		Repository: getenv("CI_PROJECT_PATH"),
		RunID:      getenv("CI_PIPELINE_ID"),
		Actor:      getenv("GITLAB_USER_LOGIN"),
	}
	switch getenv("CI_PIPELINE_SOURCE") {
	case "push":
		c.Event = EventPush
		c.Branch = getenv("CI_COMMIT_BRANCH")
	case "merge_request_event":
		c.Event = EventPullRequest
		c.Branch = getenv("CI_MERGE_REQUEST_SOURCE_BRANCH_NAME")
		c.PullRequest = getenv("CI_MERGE_REQUEST_IID")
	case "schedule":
		c.Event = EventSchedule
		c.Branch = getenv("CI_COMMIT_BRANCH")
	default:
		c.Event = EventManual
		c.Branch = getenv("CI_COMMIT_BRANCH")
	}
	return c
}

func localContext(getenv func(string) string) Context {
	return Context{
		System: SystemLocal,
		Event:  EventManual,
		Branch: getenv("PRESSROOM_BRANCH"),
		Actor:  getenv("USER"),
	}
}

// prNumberFromRef extracts "123" from a GitHub merge ref name like "123/merge".
func prNumberFromRef(refName string) string {
	for i := 0; i < len(refName); i++ {
		if refName[i] < '0' || refName[i] > '9' {
			return refName[:i]
		}
	}
	return refName
}

// ShouldPublish reports whether this trigger gates a real publish: only a
// push to the primary branch does. Every other trigger yields a preview
// artifact instead.
func (c Context) ShouldPublish(primaryBranch string) bool {
	return c.Event == EventPush && c.Branch == primaryBranch
}

// Label returns a short identifier for artifact naming: "pr-<num>" for
// pull requests, the branch name otherwise, or "local" as a last resort.
func (c Context) Label() string {
	if c.Event == EventPullRequest && c.PullRequest != "" {
		return "pr-" + c.PullRequest
	}
	if c.Branch != "" {
		return c.Branch
	}
	return "local"
}
