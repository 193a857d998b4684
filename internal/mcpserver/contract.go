package mcpserver

// ContractURI is the resource URI of MarkupContract.
const ContractURI = "memoirs://markup-contract"

// MarkupContract describes how memo content is read and rewritten before
// it reaches consumers.
const MarkupContract = `# Memoirs Markup Contract

Memos are fetched from a Memos server and rewritten into a Markdoc-like
markup. The ` + "`" + `patchedContent` + "`" + ` field of a memo holds the rewritten body.

## Frontmatter

An optional YAML block may open the memo. The ` + "`---`" + ` fence must be the
first line. Declared keys override derived ones.

` + "```" + `markdown
---
title: Reading list
memoirs_page: true        # hide from lists when filterPages is set
memoirs_sidenav: true     # hide from lists when filterPages is set
---
` + "```" + `

Derived keys: ` + "`title`, `tags`, `abstract`" + `.

## Rewrites

| Source                  | Rewritten                                                   |
|-------------------------|-------------------------------------------------------------|
| ` + "`#tag`" + `                  | ` + "`{% memoTag tag=\"#tag\" %}#tag{% /memoTag %}`" + `                |
| ` + "`- [x] done`" + `            | ` + "`- {% checkbox label=\"done\" status=\"x\" /%}`" + `                 |
| ` + "`[[Label]]`" + `             | ` + "`{% contentLink label=\"Label\" %}Label{% /contentLink %}`" + `      |

Checkbox status is one of ` + "`x`, ` `, `_`, `-`" + `.

## Titles and abstracts

1. A declared ` + "`title`" + ` wins.
2. Otherwise the first Markdown heading is used, without a trailing ` + "`{#anchor}`" + `.
3. Otherwise the memo is "Untitled".

The abstract is at most 150 characters taken from the first two paragraphs,
or "No abstract" for an empty body.

## Menu

Memos containing lines of the form

    memoirs_menu: <id> | <title> | <order>

declare navigation entries returned by the ` + "`get_menu`" + ` tool.

## Relations

Related memos are resolved to their titles. A relation that cannot be
fetched, or that closes a cycle, or that lies beyond the depth limit, is
reported with the title "Untitled".
`
