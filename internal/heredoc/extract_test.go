package heredoc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentguard/dcg/internal/heredoc"
)

func TestExtractHeredocBasic(t *testing.T) {
	cmd := "python3 <<'EOF'\nimport shutil\nshutil.rmtree('/tmp/x')\nEOF\n"
	blocks := heredoc.Extract(cmd)
	require.Len(t, blocks, 1)
	require.Equal(t, heredoc.LangPython, blocks[0].Language)
	require.Contains(t, blocks[0].Body, "shutil.rmtree")
}

func TestExtractHeredocDashTagAllowsIndentedTerminator(t *testing.T) {
	cmd := "cat <<-EOF\nhello world\nEOF\n"
	blocks := heredoc.Extract(cmd)
	require.Len(t, blocks, 1)
	require.Equal(t, "hello world\n", blocks[0].Body)
}

func TestExtractHeredocUnterminatedConsumesRemainder(t *testing.T) {
	cmd := "cat <<EOF\nline one\nline two"
	blocks := heredoc.Extract(cmd)
	require.Len(t, blocks, 1)
	require.Equal(t, "line one\nline two", blocks[0].Body)
	require.Equal(t, len(cmd), blocks[0].EndByte)
}

func TestExtractInlinePythonDashC(t *testing.T) {
	cmd := `python3 -c 'import os; os.system("rm -rf /")'`
	blocks := heredoc.Extract(cmd)
	require.Len(t, blocks, 1)
	require.Equal(t, heredoc.LangPython, blocks[0].Language)
	require.Contains(t, blocks[0].Body, "os.system")
}

func TestExtractInlineNodeDashE(t *testing.T) {
	cmd := `node -e 'require("fs").rmSync("/tmp/x", {recursive:true})'`
	blocks := heredoc.Extract(cmd)
	require.Len(t, blocks, 1)
	require.Equal(t, heredoc.LangJavaScript, blocks[0].Language)
}

func TestExtractNoBlocksInPlainCommand(t *testing.T) {
	blocks := heredoc.Extract("ls -la /tmp")
	require.Empty(t, blocks)
}

func TestDetectLanguageFallsBackToContentSniffing(t *testing.T) {
	cmd := "tee script.sh <<'EOF'\nif [ -f x ]; then\n  echo hi\nfi\nEOF\n"
	blocks := heredoc.Extract(cmd)
	require.Len(t, blocks, 1)
	require.Equal(t, heredoc.LangBash, blocks[0].Language)
}
