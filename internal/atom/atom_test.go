package atom

import (
	"testing"

	"github.com/specialistvlad/atomgrid/internal/execerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeKey(t *testing.T) {
	n, err := NewNode(ConceptNode, "one")
	require.NoError(t, err)

	assert.Equal(t, Key(`(ConceptNode "one")`), n.Key())
	assert.Equal(t, "one", n.Name())
	assert.Equal(t, ConceptNode, n.Type())
	assert.Equal(t, NodeKey(ConceptNode, "one"), n.Key())
}

func TestNodeKey_QuotesNames(t *testing.T) {
	tricky, err := NewNode(ConceptNode, `a") (ConceptNode "b`)
	require.NoError(t, err)
	plain, err := NewNode(ConceptNode, "a")
	require.NoError(t, err)

	assert.NotEqual(t, plain.Key(), tricky.Key())
	assert.Equal(t, Key(`(ConceptNode "a\") (ConceptNode \"b")`), tricky.Key())
}

func TestLinkKey(t *testing.T) {
	one, _ := NewNode(ConceptNode, "one")
	two, _ := NewNode(ConceptNode, "two")

	l, err := NewLink(ListLink, one, two)
	require.NoError(t, err)
	assert.Equal(t, Key(`(ListLink (ConceptNode "one") (ConceptNode "two"))`), l.Key())
	assert.Equal(t, 2, l.Arity())
	assert.Same(t, one, l.At(0))

	reversed, err := NewLink(ListLink, two, one)
	require.NoError(t, err)
	assert.NotEqual(t, l.Key(), reversed.Key(), "ordering is significant")

	empty, err := NewLink(ListLink)
	require.NoError(t, err)
	assert.Equal(t, Key("(ListLink)"), empty.Key())
}

func TestLink_OutgoingIsACopy(t *testing.T) {
	one, _ := NewNode(ConceptNode, "one")
	l, err := NewLink(ListLink, one)
	require.NoError(t, err)

	out := l.Outgoing()
	out[0] = nil
	assert.Same(t, one, l.At(0))
}

func TestInvalidTypes(t *testing.T) {
	_, err := NewNode(ListLink, "x")
	var typeErr *execerr.InvalidTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "node", typeErr.Want)

	one, _ := NewNode(ConceptNode, "one")
	_, err = NewLink(ConceptNode, one)
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "link", typeErr.Want)

	_, err = NewNode(NoType, "x")
	require.ErrorAs(t, err, &typeErr)

	_, err = NewLink(ListLink, one, nil)
	require.Error(t, err)
}

func TestTypeRegistry(t *testing.T) {
	got, ok := TypeByName("GroundedSchemaNode")
	require.True(t, ok)
	assert.Equal(t, GroundedSchemaNode, got)
	assert.True(t, got.IsNode())
	assert.False(t, got.IsLink())
	assert.True(t, ExecutionOutputLink.IsLink())

	_, ok = TypeByName("NoSuchLink")
	assert.False(t, ok)
	assert.Equal(t, "Type(0)", NoType.String())

	custom, err := RegisterType("ColorNode", KindNode)
	require.NoError(t, err)
	again, err := RegisterType("ColorNode", KindNode)
	require.NoError(t, err)
	assert.Equal(t, custom, again)

	_, err = RegisterType("ColorNode", KindLink)
	require.Error(t, err)
	_, err = RegisterType("", KindNode)
	require.Error(t, err)

	assert.Contains(t, Types(), custom)
}
