package schemaop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_RenameColumn(t *testing.T) {
	c := Classifier{}
	ops := []Operation{
		{Kind: KindRenameColumn, Table: "users", Name: "email", NewName: "contact_email", Type: "text"},
	}

	res := Split(c, ops)

	require.True(t, res.HasBlue())
	require.True(t, res.HasGreen())
	assert.False(t, res.HasVanilla())
	assert.True(t, res.Paired)

	require.Len(t, res.Blue, 2)
	assert.Equal(t, KindAddColumn, res.Blue[0].Kind)
	assert.Equal(t, KindCopyColumn, res.Blue[1].Kind)

	require.Len(t, res.Green, 1)
	assert.Equal(t, KindDropColumn, res.Green[0].Kind)
	assert.Equal(t, "email", res.Green[0].Name)
}

func TestSplit_PureAdditive(t *testing.T) {
	c := Classifier{}
	ops := []Operation{
		{Kind: KindCreateTable, Table: "audit", Columns: []Column{{Name: "id", Type: "bigint"}}},
		{Kind: KindAddIndex, Table: "audit", Name: "idx_audit_id", Columns: []Column{{Name: "id"}}},
	}

	res := Split(c, ops)

	assert.Len(t, res.Blue, 2)
	assert.False(t, res.HasGreen())
	assert.False(t, res.HasVanilla())
	assert.False(t, res.Paired)
}

func TestSplit_PureDestructive(t *testing.T) {
	c := Classifier{}
	ops := []Operation{
		{Kind: KindDropIndex, Table: "users", Name: "idx_users_nickname"},
		{Kind: KindDropColumn, Table: "users", Name: "nickname"},
	}

	res := Split(c, ops)

	assert.False(t, res.HasBlue())
	assert.Len(t, res.Green, 2)
	assert.False(t, res.HasVanilla())
	// Nothing was staged in blue, so the green unit does not require a blue
	// counterpart.
	assert.False(t, res.Paired)
}

func TestSplit_MixedWithInseparable(t *testing.T) {
	c := Classifier{}
	ops := []Operation{
		{Kind: KindAddColumn, Table: "users", Name: "email", Type: "text", Nullable: true},
		{Kind: KindAlterColumnType, Table: "users", Name: "id", Type: "bigint"},
		{Kind: KindDropColumn, Table: "users", Name: "nickname"},
	}

	res := Split(c, ops)

	assert.Len(t, res.Blue, 1)
	assert.Len(t, res.Green, 1)
	require.Len(t, res.Vanilla, 1)
	assert.Equal(t, KindAlterColumnType, res.Vanilla[0].Kind)
	assert.False(t, res.Paired)
}

func TestSplit_PreservesOperationOrder(t *testing.T) {
	c := Classifier{}
	ops := []Operation{
		{Kind: KindAddColumn, Table: "users", Name: "a", Type: "text", Nullable: true},
		{Kind: KindRenameColumn, Table: "users", Name: "b", NewName: "c", Type: "text"},
		{Kind: KindAddColumn, Table: "users", Name: "d", Type: "text", Nullable: true},
	}

	res := Split(c, ops)

	require.Len(t, res.Blue, 4)
	assert.Equal(t, "a", res.Blue[0].Name)
	assert.Equal(t, "c", res.Blue[1].Name) // add half of the rename
	assert.Equal(t, KindCopyColumn, res.Blue[2].Kind)
	assert.Equal(t, "d", res.Blue[3].Name)
}

func TestTargets_Union(t *testing.T) {
	ops := []Operation{
		{Kind: KindAddColumn, Table: "users", Name: "email", Type: "text"},
		{Kind: KindAddIndex, Table: "users", Name: "idx_users_email", Columns: []Column{{Name: "email"}}},
		{Kind: KindDropTable, Table: "legacy"},
	}

	got := Targets(ops)
	assert.Equal(t, []string{"users", "users.email", "users.idx_users_email", "legacy"}, got)
}
