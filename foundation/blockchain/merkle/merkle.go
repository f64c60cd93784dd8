// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides an implementation of a merkle tree for validation
// support for the blockchain.
package merkle

import (
	"bytes"
	"errors"

	"github.com/minio/sha256-simd"
)

// Set of error variables for building trees and proofs.
var (
	ErrNoContent = errors.New("cannot construct tree with no content")
	ErrNotFound  = errors.New("unable to find data in tree")
)

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() ([]byte, error)
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint. Pairs are hashed with sha256.
type Tree[T Hashable[T]] struct {
	Root       *Node[T]
	Leafs      []*Node[T]
	MerkleRoot []byte
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T) (*Tree[T], error) {
	if len(values) == 0 {
		return nil, ErrNoContent
	}

	leafs := make([]*Node[T], 0, len(values)+1)
	for _, value := range values {
		hash, err := value.Hash()
		if err != nil {
			return nil, err
		}

		leafs = append(leafs, &Node[T]{
			Hash:  hash,
			Value: value,
		})
	}

	// An odd number of leafs pairs the last leaf with itself.
	if len(leafs)%2 == 1 {
		last := leafs[len(leafs)-1]
		leafs = append(leafs, &Node[T]{
			Hash:  last.Hash,
			Value: last.Value,
		})
	}

	root := buildIntermediate(leafs)

	t := Tree[T]{
		Root:       root,
		Leafs:      leafs,
		MerkleRoot: root.Hash,
	}

	return &t, nil
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving a value is in the tree. An order of 0 means the proof
// hash comes first in the concatenation, 1 means it comes second.
func (t *Tree[T]) Proof(data T) ([][]byte, []int64, error) {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		var merkleProof [][]byte
		var order []int64
		nodeParent := node.Parent

		for nodeParent != nil {
			if nodeParent.Left == node {
				merkleProof = append(merkleProof, nodeParent.Right.Hash)
				order = append(order, 1)
			} else {
				merkleProof = append(merkleProof, nodeParent.Left.Hash)
				order = append(order, 0)
			}
			node = nodeParent
			nodeParent = nodeParent.Parent
		}

		return merkleProof, order, nil
	}

	return nil, nil, ErrNotFound
}

// VerifyProof folds the proof hashes into the leaf hash in the given order
// and reports whether the result is the root. Anyone holding the root can
// check a proof without the rest of the tree.
func VerifyProof(leaf []byte, proof [][]byte, order []int64, root []byte) bool {
	if len(leaf) == 0 || len(proof) != len(order) {
		return false
	}

	h := leaf
	for i := range proof {
		switch order[i] {
		case 0:
			h = hashPair(proof[i], h)
		case 1:
			h = hashPair(h, proof[i])
		default:
			return false
		}
	}

	return bytes.Equal(h, root)
}

// =============================================================================

// Node represents a node, root, or leaf in the tree. It stores pointers to its
// immediate relationships, a hash, and the data if it is a leaf.
type Node[T Hashable[T]] struct {
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   []byte
	Value  T
}

// =============================================================================

// buildIntermediate constructs the intermediate and root levels of the tree
// for a given level of nodes. When a level has an odd number of nodes the
// last node is paired with itself.
func buildIntermediate[T Hashable[T]](nl []*Node[T]) *Node[T] {
	nodes := make([]*Node[T], 0, (len(nl)+1)/2)

	for i := 0; i < len(nl); i += 2 {
		left, right := i, i+1
		if right == len(nl) {
			right = i
		}

		n := Node[T]{
			Left:  nl[left],
			Right: nl[right],
			Hash:  hashPair(nl[left].Hash, nl[right].Hash),
		}

		nodes = append(nodes, &n)
		nl[left].Parent = &n
		nl[right].Parent = &n
	}

	if len(nodes) == 1 {
		return nodes[0]
	}

	return buildIntermediate(nodes)
}

// hashPair hashes the concatenation of the two hashes. A fresh buffer is used
// so the caller's slices are never written through.
func hashPair(left []byte, right []byte) []byte {
	buf := make([]byte, 0, len(left)+len(right))
	buf = append(buf, left...)
	buf = append(buf, right...)

	sum := sha256.Sum256(buf)
	return sum[:]
}
