package domain

import (
	"encoding/json"
	"path"
)

// RepositoryIdentity identifies a branch of a GitHub repository
type RepositoryIdentity struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
}

// FullName returns "owner/repo"
func (r RepositoryIdentity) FullName() string {
	return path.Join(r.Owner, r.Repo)
}

// NodeType is the serialized kind of a FileNode
type NodeType string

const (
	NodeTypeFile      NodeType = "file"
	NodeTypeDirectory NodeType = "directory"
)

// RootNodeName is the name of every tree's root node
const RootNodeName = "root"

// FileNode is a file or directory in a document tree.
// Children keep their first-insertion order.
type FileNode struct {
	Name   string
	IsFile bool

	children []*FileNode
	index    map[string]int
}

// NewDirectoryNode creates an empty directory node
func NewDirectoryNode(name string) *FileNode {
	return &FileNode{Name: name}
}

// NewFileNode creates a leaf file node
func NewFileNode(name string) *FileNode {
	return &FileNode{Name: name, IsFile: true}
}

// Type returns the node's serialized kind
func (n *FileNode) Type() NodeType {
	if n.IsFile {
		return NodeTypeFile
	}
	return NodeTypeDirectory
}

// Children returns the ordered children of a directory node
func (n *FileNode) Children() []*FileNode {
	return n.children
}

// Child returns the child with the given name, or nil
func (n *FileNode) Child(name string) *FileNode {
	if i, ok := n.index[name]; ok {
		return n.children[i]
	}
	return nil
}

// AddChild inserts child unless a node with the same name exists.
// It returns the node stored under that name. A name already held by a
// node of the other kind is a ConflictError.
func (n *FileNode) AddChild(child *FileNode) (*FileNode, error) {
	if n.IsFile {
		return nil, &ConflictError{Path: n.Name}
	}
	if existing := n.Child(child.Name); existing != nil {
		if existing.IsFile != child.IsFile {
			return nil, &ConflictError{Path: child.Name}
		}
		return existing, nil
	}
	if n.index == nil {
		n.index = make(map[string]int)
	}
	n.index[child.Name] = len(n.children)
	n.children = append(n.children, child)
	return child, nil
}

// Count returns the number of file nodes under n (inclusive)
func (n *FileNode) Count() int {
	if n.IsFile {
		return 1
	}
	total := 0
	for _, c := range n.children {
		total += c.Count()
	}
	return total
}

type fileNodeJSON struct {
	Name string   `json:"name"`
	Type NodeType `json:"type"`
}

type directoryNodeJSON struct {
	Name     string      `json:"name"`
	Type     NodeType    `json:"type"`
	Children []*FileNode `json:"children"`
}

// MarshalJSON renders {name, type} for files and adds children for directories
func (n *FileNode) MarshalJSON() ([]byte, error) {
	if n.IsFile {
		return json.Marshal(fileNodeJSON{Name: n.Name, Type: NodeTypeFile})
	}
	children := n.children
	if children == nil {
		children = []*FileNode{}
	}
	return json.Marshal(directoryNodeJSON{Name: n.Name, Type: NodeTypeDirectory, Children: children})
}

// UnmarshalJSON rebuilds a tree from its serialized form
func (n *FileNode) UnmarshalJSON(data []byte) error {
	var raw directoryNodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Name = raw.Name
	n.IsFile = raw.Type == NodeTypeFile
	n.children = nil
	n.index = nil
	for _, c := range raw.Children {
		if _, err := n.AddChild(c); err != nil {
			return err
		}
	}
	return nil
}

// MarkdownDocument is one markdown file found in a repository
type MarkdownDocument struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	RelativePath string `json:"-"`
}

// Index is the result of walking an extracted repository
type Index struct {
	Root      *FileNode
	Documents []MarkdownDocument
	First     *MarkdownDocument
}

// ParseDetails describes the repository that was indexed
type ParseDetails struct {
	IdentifierDir string `json:"identifier_dir"`
	Owner         string `json:"owner"`
	Repo          string `json:"repo"`
	Branch        string `json:"branch"`
	TotalMDFiles  int    `json:"total_md_files"`
}

// ArticleContent is the first document of a repository. Both fields are
// null when the repository has no markdown documents.
type ArticleContent struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// ParseResult is the success payload of a repository parse
type ParseResult struct {
	Status    string             `json:"status"`
	Message   string             `json:"message"`
	Details   ParseDetails       `json:"details"`
	Content   ArticleContent     `json:"content"`
	Files     *FileNode          `json:"files"`
	Documents []MarkdownDocument `json:"documents,omitempty"`
}

// NewArticleContent builds the content object from an optional document
func NewArticleContent(doc *MarkdownDocument) ArticleContent {
	if doc == nil {
		return ArticleContent{}
	}
	title, content := doc.Title, doc.Content
	return ArticleContent{Title: &title, Content: &content}
}

// =============================================================================
// LLM Types
// =============================================================================

// MessageRole represents the role in a conversation
type MessageRole string

const (
	// RoleSystem represents a system message
	RoleSystem MessageRole = "system"
	// RoleUser represents a user message
	RoleUser MessageRole = "user"
	// RoleAssistant represents an assistant message
	RoleAssistant MessageRole = "assistant"
)

// LLMMessage represents a message in the conversation
type LLMMessage struct {
	Role    MessageRole
	Content string
}

// LLMRequest represents a completion request
type LLMRequest struct {
	Messages    []LLMMessage
	MaxTokens   int      // 0 = use provider default
	Temperature *float64 // nil = use provider default
}

// LLMResponse represents the LLM response
type LLMResponse struct {
	Content      string
	Model        string
	FinishReason string
	Usage        LLMUsage
}

// LLMUsage contains token usage statistics
type LLMUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
