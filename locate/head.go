package locate

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// HeadInfo describes the checked out state of a repository
type HeadInfo struct {
	Branch string // Short branch name, empty on a detached HEAD
	Commit string // Abbreviated commit hash
	Clean  bool   // Whether the worktree has no pending changes
}

func (h HeadInfo) String() string {
	ref := h.Branch
	if ref == "" {
		ref = "detached"
	}
	state := "clean"
	if !h.Clean {
		state = "dirty"
	}
	return fmt.Sprintf("%s@%s (%s)", ref, h.Commit, state)
}

// DescribeHead opens the repository rooted at repoRoot and reports its HEAD and worktree state
func DescribeHead(repoRoot string) (HeadInfo, error) {
	var info HeadInfo

	repo, err := git.PlainOpen(repoRoot)
	if err != nil {
		return info, fmt.Errorf("failed to open repository at %s: %w", repoRoot, err)
	}

	head, err := repo.Head()
	if err != nil {
		return info, fmt.Errorf("failed to resolve HEAD of %s: %w", repoRoot, err)
	}

	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	info.Commit = head.Hash().String()[:7]

	worktree, err := repo.Worktree()
	if err != nil {
		return info, err
	}
	status, err := worktree.Status()
	if err != nil {
		return info, err
	}
	info.Clean = status.IsClean()

	return info, nil
}
