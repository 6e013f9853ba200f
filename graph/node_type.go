/*
 *	Copyright 2024 TensorIR Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package graph

// NodeType enumerates the operations supported by the IR.
type NodeType int

//go:generate go tool enumer -type=NodeType -trimprefix=NodeType node_type.go

const (
	NodeTypeInvalid NodeType = iota

	// Sources.

	NodeTypeParameter
	NodeTypeConstant

	// Element-wise ops.

	NodeTypeIdentity
	NodeTypeConvertDType
	NodeTypeNeg
	NodeTypeNonNegativeIndicator
	NodeTypeAdd
	NodeTypeSub
	NodeTypeMul
	NodeTypeMin
	NodeTypeMax
	NodeTypeClip

	// Shape ops.

	NodeTypeTranspose
	NodeTypeReshape
	NodeTypeSqueeze
	NodeTypeStack
	NodeTypeSlice
	NodeTypePad
	NodeTypeBroadcastTo
	NodeTypeReduceSum

	// Indexing ops.

	NodeTypeTake
	NodeTypeScatterSum

	// Generators.

	NodeTypeIotaLike
	NodeTypeArange

	// NodeTypeLast marks the end of the enumeration, used to size dispatch
	// tables.
	NodeTypeLast
)
