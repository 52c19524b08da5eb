package concept

import (
	"context"
	"testing"

	"github.com/specialistvlad/atomgrid/internal/atom"
	"github.com/specialistvlad/atomgrid/internal/inmemoryspace"
	"github.com/specialistvlad/atomgrid/internal/procedure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnConcept(t *testing.T) {
	r := procedure.NewRegistry()
	require.NoError(t, (&Module{}).Register(r))

	p, ok := r.Lookup("return_concept")
	require.True(t, ok)
	assert.Equal(t, procedure.Exactly(1), p.Arity)

	argSpace, callSpace := inmemoryspace.New(), inmemoryspace.New()
	arg, _ := argSpace.AddNode(atom.ConceptNode, "anything")

	got, err := p.Fn(context.Background(), &procedure.Call{Space: callSpace, Args: []procedure.Argument{{Atom: arg, Space: argSpace}}})
	require.NoError(t, err)
	assert.True(t, argSpace.Contains(got.(atom.Atom)), "interned in the argument's space")
	assert.Zero(t, callSpace.Size())
}
