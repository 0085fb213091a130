package parse

import (
	"context"
)

// Field operations are sent as field values in an update. The server applies
// them atomically.

const (
	opIncrement      = "Increment"
	opAdd            = "Add"
	opAddUnique      = "AddUnique"
	opRemove         = "Remove"
	opDelete         = "Delete"
	opAddRelation    = "AddRelation"
	opRemoveRelation = "RemoveRelation"
)

func fieldOp(op string, extra map[string]Value) Value {
	m := map[string]Value{"__op": String(op)}
	for k, v := range extra {
		m[k] = v
	}
	return ObjectValue(m)
}

// IncrementOp adds amount to a number field
func IncrementOp(amount int64) Value {
	return fieldOp(opIncrement, map[string]Value{"amount": Int(amount)})
}

// DecrementOp subtracts amount from a number field
func DecrementOp(amount int64) Value {
	return IncrementOp(-amount)
}

// AddOp appends items to an array field
func AddOp(items ...Value) Value {
	return fieldOp(opAdd, map[string]Value{"objects": Array(items...)})
}

// AddUniqueOp appends the items not already in an array field
func AddUniqueOp(items ...Value) Value {
	return fieldOp(opAddUnique, map[string]Value{"objects": Array(items...)})
}

// RemoveOp removes every occurrence of items from an array field
func RemoveOp(items ...Value) Value {
	return fieldOp(opRemove, map[string]Value{"objects": Array(items...)})
}

// DeleteOp unsets a field
func DeleteOp() Value {
	return fieldOp(opDelete, nil)
}

func pointerArray(targets []Pointer) Value {
	items := make([]Value, len(targets))
	for i, p := range targets {
		items[i] = PointerValue(p)
	}
	return Array(items...)
}

// AddRelationOp adds targets to a relation field
func AddRelationOp(targets ...Pointer) Value {
	return fieldOp(opAddRelation, map[string]Value{"objects": pointerArray(targets)})
}

// RemoveRelationOp removes targets from a relation field
func RemoveRelationOp(targets ...Pointer) Value {
	return fieldOp(opRemoveRelation, map[string]Value{"objects": pointerArray(targets)})
}

// Increment sets field to an increment operation
func (o *Object) Increment(field string, amount int64) { o.Set(field, IncrementOp(amount)) }

// Decrement sets field to a decrement operation
func (o *Object) Decrement(field string, amount int64) { o.Set(field, DecrementOp(amount)) }

// AddToArray sets field to an append operation
func (o *Object) AddToArray(field string, items ...Value) { o.Set(field, AddOp(items...)) }

// AddUniqueToArray sets field to a unique append operation
func (o *Object) AddUniqueToArray(field string, items ...Value) { o.Set(field, AddUniqueOp(items...)) }

// RemoveFromArray sets field to a remove operation
func (o *Object) RemoveFromArray(field string, items ...Value) { o.Set(field, RemoveOp(items...)) }

// AddRelation adds targets to the relation key of an object. The master key
// is used when configured.
func (c *Client) AddRelation(ctx context.Context, className, objectID, key string, targets []Pointer, opts ...CallOption) (*UpdateResult, error) {
	return c.updateRelation(ctx, opAddRelation, className, objectID, key, targets, opts)
}

// RemoveRelation removes targets from the relation key of an object. The
// master key is used when configured.
func (c *Client) RemoveRelation(ctx context.Context, className, objectID, key string, targets []Pointer, opts ...CallOption) (*UpdateResult, error) {
	return c.updateRelation(ctx, opRemoveRelation, className, objectID, key, targets, opts)
}

func (c *Client) updateRelation(ctx context.Context, op, className, objectID, key string, targets []Pointer, opts []CallOption) (*UpdateResult, error) {
	if len(targets) == 0 {
		return nil, localError(KindInvalidRequest, "targets cannot be empty for %s", op)
	}
	if className == "" || objectID == "" || key == "" {
		return nil, localError(KindInvalidRequest, "class name, object id and relation key are required")
	}

	if c.HasMasterKey() {
		opts = append([]CallOption{UseMasterKey()}, opts...)
	}
	return c.UpdateObject(ctx, className, objectID, map[string]Value{
		key: fieldOp(op, map[string]Value{"objects": pointerArray(targets)}),
	}, opts...)
}
