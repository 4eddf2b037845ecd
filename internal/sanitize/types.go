package sanitize

// Kind enumerates the wire-facing value kinds.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBoolean
	KindInt
	KindFloat
	KindString
	KindList
	KindDictionary
	KindGameObject
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBoolean:
		return "boolean"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindDictionary:
		return "dictionary"
	case KindGameObject:
		return "gameObject"
	}
	return "unknown"
}

// Type describes one declared value shape: a scalar, a collection with
// element/key types, or a game-object reference with an optional required
// concrete class.
type Type struct {
	Kind Kind

	// KeyType is set for dictionaries.
	KeyType *Type

	// ValueType is set for lists (element type) and dictionaries (value type).
	ValueType *Type

	// ObjectClass is the required gameObjectName for KindGameObject.
	// Empty accepts any tracked object.
	ObjectClass string
}

// Descriptor constructors. Declared schemas read as
// sanitize.ListOf(sanitize.Int()) etc.

func Void() *Type    { return &Type{Kind: KindVoid} }
func Boolean() *Type { return &Type{Kind: KindBoolean} }
func Int() *Type     { return &Type{Kind: KindInt} }
func Float() *Type   { return &Type{Kind: KindFloat} }
func String() *Type  { return &Type{Kind: KindString} }

func ListOf(elem *Type) *Type {
	return &Type{Kind: KindList, ValueType: elem}
}

func DictOf(key, value *Type) *Type {
	return &Type{Kind: KindDictionary, KeyType: key, ValueType: value}
}

func ObjectOf(class string) *Type {
	return &Type{Kind: KindGameObject, ObjectClass: class}
}

// Object is the minimal game-object surface the sanitizer needs to resolve
// and check references.
type Object interface {
	ObjectID() string
	ObjectName() string
}

// Lookup resolves tracked objects by id. The owning Game implements it.
type Lookup interface {
	ObjectByID(id string) (Object, bool)
}
